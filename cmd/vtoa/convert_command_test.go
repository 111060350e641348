package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vtoa/internal/services"
	"vtoa/internal/testsupport"
)

func TestConvertWritesAudioBesideSources(t *testing.T) {
	env := setupCLITestEnv(t, 1)
	env.addMedia(t, "b.MKV", "a.mp4", "notes.txt")

	out, _, err := runCLI(t, []string{"convert", env.mediaDir}, env.configPath, "")
	if err != nil {
		t.Fatalf("convert: %v\n%s", err, out)
	}

	requireContains(t, out, "Found 2 video file(s)")
	requireContains(t, out, "[1/2] Converting: a.mp4")
	requireContains(t, out, "Output: a_audio.m4a")
	requireContains(t, out, "[2/2] Converting: b.MKV")
	requireContains(t, out, "Status: ✓ Completed")
	requireContains(t, out, "All files converted successfully!")
	requireFile(t, filepath.Join(env.mediaDir, "a_audio.m4a"))
	requireFile(t, filepath.Join(env.mediaDir, "b_audio.m4a"))

	if got := len(env.stub.Invocations(t)); got != 2 {
		t.Fatalf("expected one ffmpeg run per file, got %d", got)
	}
}

func TestConvertReportsFailuresAndContinues(t *testing.T) {
	env := setupCLITestEnv(t, 1, testsupport.FailWhenArgsContain("bad.mp4", "bad.mp4: Invalid data found when processing input"))
	env.addMedia(t, "bad.mp4", "good.mp4")

	out, _, err := runCLI(t, []string{"convert", env.mediaDir}, env.configPath, "")
	if !errors.Is(err, errConversionFailed) {
		t.Fatalf("expected errConversionFailed, got %v", err)
	}

	requireContains(t, out, "Status: ✗ FAILED")
	requireContains(t, out, "ERRORS")
	requireContains(t, out, "File: bad.mp4")
	requireContains(t, out, "  Extract failed: bad.mp4: Invalid data found when processing input")
	requireContains(t, out, "Conversion completed with 1 error(s).")
	requireFile(t, filepath.Join(env.mediaDir, "good_audio.m4a"))
	if _, statErr := os.Stat(filepath.Join(env.mediaDir, "bad_audio.m4a")); !os.IsNotExist(statErr) {
		t.Fatal("failed file must not leave output")
	}
}

func TestConvertFlagsOverrideConfig(t *testing.T) {
	env := setupCLITestEnv(t, 2)
	env.addMedia(t, "talk.mov")

	args := []string{"convert", "--remove-silence", "--normalize", "--track", "2", "--suffix", "", env.mediaDir}
	out, _, err := runCLI(t, args, env.configPath, "")
	if err != nil {
		t.Fatalf("convert: %v\n%s", err, out)
	}

	requireContains(t, out, "Output: talk.m4a")
	requireFile(t, filepath.Join(env.mediaDir, "talk.m4a"))

	calls := env.stub.Invocations(t)
	if len(calls) != 3 {
		t.Fatalf("expected three stages, got %d: %v", len(calls), calls)
	}
	requireContains(t, calls[0], "-map 0:a:1")
	requireContains(t, calls[1], "silenceremove")
	requireContains(t, calls[2], "loudnorm")

	entries, err := os.ReadDir(env.mediaDir)
	if err != nil {
		t.Fatalf("read media dir: %v", err)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".vtoa-") {
			t.Fatalf("temp file left behind: %s", entry.Name())
		}
	}
}

func TestConvertMissingTrackFailsFile(t *testing.T) {
	env := setupCLITestEnv(t, 1)
	env.addMedia(t, "one-track.mp4")

	out, _, err := runCLI(t, []string{"convert", "--track", "3", env.mediaDir}, env.configPath, "")
	if !errors.Is(err, errConversionFailed) {
		t.Fatalf("expected errConversionFailed, got %v", err)
	}
	requireContains(t, out, "audio track 3 requested but one-track.mp4 has 1 audio stream(s)")
	if calls := env.stub.Invocations(t); len(calls) != 0 {
		t.Fatalf("ffmpeg must not run when the track is missing, got %v", calls)
	}
}

func TestConvertEmptyDirectory(t *testing.T) {
	env := setupCLITestEnv(t, 1)
	env.addMedia(t, "readme.txt")

	out, _, err := runCLI(t, []string{"convert", env.mediaDir}, env.configPath, "")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	requireContains(t, out, "No video files found in directory.")
}

func TestConvertMissingDirectory(t *testing.T) {
	env := setupCLITestEnv(t, 1)
	missing := filepath.Join(env.mediaDir, "nope")

	out, _, err := runCLI(t, []string{"convert", missing}, env.configPath, "")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	requireContains(t, out, "Directory not found or not accessible")
}

func TestConvertRejectsInvalidTrackFlag(t *testing.T) {
	env := setupCLITestEnv(t, 1)
	env.addMedia(t, "a.mp4")

	_, _, err := runCLI(t, []string{"convert", "--track", "0", env.mediaDir}, env.configPath, "")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if calls := env.stub.Invocations(t); len(calls) != 0 {
		t.Fatalf("no file may be processed after a configuration error, got %v", calls)
	}
}

func TestConvertRequiresDirectoryWithoutTerminal(t *testing.T) {
	env := setupCLITestEnv(t, 1)

	_, _, err := runCLI(t, []string{"convert"}, env.configPath, "")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestConvertInteractivePrompts(t *testing.T) {
	env := setupCLITestEnv(t, 1)
	env.addMedia(t, "lecture.mp4")

	stdin := strings.Join([]string{
		`"` + env.mediaDir + `"`,
		"maybe",
		"y",
		"n",
		"yes",
		"0",
		"1",
	}, "\n") + "\n"
	out, _, err := runCLI(t, []string{"convert", "--interactive"}, env.configPath, stdin)
	if err != nil {
		t.Fatalf("convert: %v\n%s", err, out)
	}

	requireContains(t, out, "Enter directory path: ")
	requireContains(t, out, "Please enter 'y' or 'n'")
	requireContains(t, out, "Please enter a positive number (1, 2, 3, etc.)")
	requireContains(t, out, "Directory: "+env.mediaDir)
	requireFile(t, filepath.Join(env.mediaDir, "lecture_audio.m4a"))
	if got := len(env.stub.Invocations(t)); got != 3 {
		t.Fatalf("expected extract, silence and normalize runs, got %d", got)
	}
}

func TestConvertInteractiveInputClosed(t *testing.T) {
	env := setupCLITestEnv(t, 1)

	_, _, err := runCLI(t, []string{"convert", "--interactive", env.mediaDir}, env.configPath, "y\n")
	if !errors.Is(err, errInputClosed) {
		t.Fatalf("expected errInputClosed, got %v", err)
	}
}

func TestStripQuotes(t *testing.T) {
	tests := map[string]string{
		`"/media/My Videos"`: "/media/My Videos",
		`'/media/x'`:         "/media/x",
		`  /media/y  `:       "/media/y",
		`"/media/mixed'`:     `"/media/mixed'`,
		`"`:                  `"`,
	}
	for in, want := range tests {
		if got := stripQuotes(in); got != want {
			t.Errorf("stripQuotes(%q) = %q, want %q", in, got, want)
		}
	}
}
