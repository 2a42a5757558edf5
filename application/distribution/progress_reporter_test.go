package distribution

import (
	"bytes"
	"testing"

	"gdrive-share/domain/distribution"
)

func TestProgressReporter_NonInteractive(t *testing.T) {
	var out bytes.Buffer
	r := NewProgressReporter(&out, false)

	r.BeginUpload("report.pdf", 1234567)
	r.OnProgress(distribution.UploadProgress{Status: distribution.StatusInProgress, BytesSent: 1000})
	r.OnProgress(distribution.UploadProgress{Status: distribution.StatusCompleted, BytesSent: 1234567})
	r.OnCompleted(distribution.UploadCompleted{FileName: "report.pdf"})

	want := "      Sent 1,234,567 bytes\n      Uploaded report.pdf\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestProgressReporter_Interactive(t *testing.T) {
	var out bytes.Buffer
	r := NewProgressReporter(&out, true)

	r.BeginUpload("video.mp4", 2048)
	r.OnProgress(distribution.UploadProgress{Status: distribution.StatusInProgress, BytesSent: 1024})
	r.OnProgress(distribution.UploadProgress{Status: distribution.StatusCompleted, BytesSent: 2048})
	r.OnCompleted(distribution.UploadCompleted{FileName: "video.mp4"})

	want := "\r      video.mp4: 1.0 KiB / 2.0 KiB (50%)" +
		"\r      video.mp4: 2.0 KiB / 2.0 KiB (100%)\n" +
		"      Uploaded video.mp4\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestProgressReporter_InteractiveWithoutSize(t *testing.T) {
	var out bytes.Buffer
	r := NewProgressReporter(&out, true)

	r.OnProgress(distribution.UploadProgress{Status: distribution.StatusInProgress, BytesSent: 512})
	r.OnCompleted(distribution.UploadCompleted{FileName: "notes.txt"})

	want := "\r      : 512 B\n      Uploaded notes.txt\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}
