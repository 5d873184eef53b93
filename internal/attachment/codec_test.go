package attachment_test

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/mfrelance/workflow-service/internal/attachment"
	util "github.com/mfrelance/workflow-service/pkg/util"
)

func encode(raw []byte) string {
	return base64.StdEncoding.EncodeToString(raw)
}

func TestClassify(t *testing.T) {
	pngPayload := append([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, []byte("rest of file")...)
	jpegPayload := append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, []byte("jfif")...)
	gifPayload := append([]byte("GIF89a"), 0x01, 0x02)

	cases := []struct {
		name    string
		payload string
		want    attachment.Kind
	}{
		{"plain prose", "hello, I need help with my payment", attachment.KindText},
		{"valid base64 without magic", "SGVsbG8=", attachment.KindText},
		{"malformed base64", "SGVsbG8", attachment.KindText},
		{"png", encode(pngPayload), attachment.KindPNG},
		{"jpeg", encode(jpegPayload), attachment.KindJPEG},
		{"gif87a", encode(append([]byte("GIF87a"), 0x00)), attachment.KindGIF},
		{"gif89a", encode(gifPayload), attachment.KindGIF},
		{"truncated png magic", encode([]byte{0x89, 0x50, 0x4E}), attachment.KindText},
		{"empty", "", attachment.KindText},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := attachment.Classify(tc.payload)
			if got != tc.want {
				t.Fatalf("Classify(%q) = %q, want %q", tc.payload, got, tc.want)
			}
			// Classification is derived, never stored: it must come out
			// identical on every read.
			if again := attachment.Classify(tc.payload); again != got {
				t.Fatalf("Classify not deterministic: %q then %q", got, again)
			}
		})
	}
}

func TestEncodeUploadBounds(t *testing.T) {
	payload := strings.Repeat("x", 64)

	encoded, err := attachment.EncodeUpload(strings.NewReader(payload), 64)
	if err != nil {
		t.Fatalf("EncodeUpload within bound failed: %v", err)
	}
	if attachment.Classify(encoded) != attachment.KindText {
		t.Fatalf("encoded text upload should classify as text")
	}

	_, err = attachment.EncodeUpload(strings.NewReader(payload), 63)
	if err == nil {
		t.Fatalf("expected error for oversized upload")
	}
	if util.CodeOf(err) != util.CodePayloadTooLarge {
		t.Fatalf("expected %s, got %s", util.CodePayloadTooLarge, util.CodeOf(err))
	}
}

func TestEncodeUploadRoundTrip(t *testing.T) {
	raw := append([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, 0xDE, 0xAD)
	encoded, err := attachment.EncodeUpload(strings.NewReader(string(raw)), 1024)
	if err != nil {
		t.Fatalf("EncodeUpload: %v", err)
	}
	if got := attachment.Classify(encoded); got != attachment.KindPNG {
		t.Fatalf("uploaded png should classify as png, got %q", got)
	}
}
