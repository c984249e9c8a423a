package fileid

import "testing"

func TestDocID(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/data/docs/Annual Report 2024.pdf", "annual_report_2024"},
		{"docs/10-K.pdf", "10_k"},
		{"notes.txt", "notes"},
		{"weird___name..md", "weird_name"},
		{"....", "doc"},
	}
	for _, tt := range tests {
		if got := DocID(tt.path); got != tt.want {
			t.Errorf("DocID(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestDocID_Stable(t *testing.T) {
	if DocID("/a/b/report.pdf") != DocID("/a/b/report.pdf") {
		t.Fatal("not deterministic")
	}
	if DocID("/x/report.pdf") != DocID("/y/report.pdf") {
		t.Fatal("same file name should yield same id regardless of directory")
	}
}
