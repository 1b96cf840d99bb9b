package stream

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveAssetPath_valid_files(t *testing.T) {
	for _, name := range []string{"index.m3u8", "index12.ts", "seg_001.ts", "a-b.c.m3u8"} {
		path, err := ResolveAssetPath("/srv/streams", "cam1", name)
		if err != nil {
			t.Errorf("ResolveAssetPath(%q): %v", name, err)
			continue
		}
		want := filepath.Join("/srv/streams", "cam1", name)
		if path != want {
			t.Errorf("ResolveAssetPath(%q) = %q, want %q", name, path, want)
		}
	}
}

func TestResolveAssetPath_rejects_traversal_and_bad_extensions(t *testing.T) {
	bad := []string{
		"../secret.m3u8",
		"..%2Fsecret.m3u8",
		"a/b.ts",
		"a\\b.ts",
		"..",
		"index.m3u8 ",
		"index.mp4",
		"index",
		"index.ts.exe",
		"",
	}
	for _, name := range bad {
		_, err := ResolveAssetPath("/srv/streams", "cam1", name)
		if !errors.Is(err, ErrInvalidStreamFile) {
			t.Errorf("ResolveAssetPath(%q): expected ErrInvalidStreamFile, got %v", name, err)
		}
	}
}

func TestResolveAssetPath_sanitizes_camera_id(t *testing.T) {
	path, err := ResolveAssetPath("/srv/streams", "../../etc", "index.m3u8")
	if err != nil {
		t.Fatalf("ResolveAssetPath: %v", err)
	}
	if strings.Contains(path, "..") {
		t.Errorf("camera id traversal not neutralized: %q", path)
	}
	if path != filepath.Join("/srv/streams", "etc", "index.m3u8") {
		t.Errorf("unexpected path %q", path)
	}
}

func TestInjectToken(t *testing.T) {
	playlist := strings.Join([]string{
		"#EXTM3U",
		"#EXT-X-VERSION:3",
		"#EXT-X-TARGETDURATION:2",
		"",
		"#EXTINF:2.0,",
		"index0.ts",
		"#EXTINF:2.0,",
		"index1.ts?foo=bar",
		"#EXTINF:2.0,",
		"index2.ts?token=already-there",
		"",
	}, "\n")

	out := InjectToken(playlist, "tok/1+2")

	if !strings.Contains(out, "index0.ts?token=tok%2F1%2B2") {
		t.Errorf("plain segment did not get token: %s", out)
	}
	if !strings.Contains(out, "index1.ts?foo=bar&token=tok%2F1%2B2") {
		t.Errorf("existing query not preserved: %s", out)
	}
	if !strings.Contains(out, "index2.ts?token=already-there") {
		t.Errorf("existing token must be left alone: %s", out)
	}
	if strings.Contains(out, "index2.ts?token=already-there&token=") {
		t.Errorf("token duplicated: %s", out)
	}
	if !strings.Contains(out, "#EXTM3U") || !strings.Contains(out, "#EXT-X-TARGETDURATION:2") {
		t.Errorf("comment lines must pass through unchanged: %s", out)
	}
}

func TestInjectToken_empty_playlist(t *testing.T) {
	if out := InjectToken("", "tok"); out != "" {
		t.Errorf("expected empty output, got %q", out)
	}
}
