package testsupport

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// FFmpegStub is a shell script standing in for ffmpeg. Each invocation appends
// its arguments to a log and writes a few bytes to its last argument.
type FFmpegStub struct {
	Path    string
	LogPath string
}

// StubFFmpegOption customizes the generated script.
type StubFFmpegOption func(*stubSpec)

type stubSpec struct {
	failOn string
	stderr string
	empty  bool
}

// FailWhenArgsContain makes the stub exit 1 with stderr when any argument
// contains pattern, e.g. "loudnorm" to fail only the Normalize stage.
func FailWhenArgsContain(pattern, stderr string) StubFFmpegOption {
	return func(s *stubSpec) {
		s.failOn = pattern
		s.stderr = stderr
	}
}

// WriteEmptyOutput makes successful invocations create a zero-byte output.
func WriteEmptyOutput() StubFFmpegOption {
	return func(s *stubSpec) {
		s.empty = true
	}
}

// StubFFmpeg writes an ffmpeg stub into a fresh temp directory.
func StubFFmpeg(t testing.TB, opts ...StubFFmpegOption) *FFmpegStub {
	t.Helper()

	st := stubSpec{}
	for _, opt := range opts {
		opt(&st)
	}

	dir := t.TempDir()
	stub := &FFmpegStub{
		Path:    filepath.Join(dir, "ffmpeg"),
		LogPath: filepath.Join(dir, "invocations.log"),
	}

	var b strings.Builder
	b.WriteString("#!/bin/sh\n")
	b.WriteString("for last; do :; done\n")
	// Probes such as "ffmpeg -version" produce no output file.
	b.WriteString("case \"$last\" in -*) exit 0;; esac\n")
	b.WriteString("echo \"$*\" >> '" + stub.LogPath + "'\n")
	if st.failOn != "" {
		b.WriteString("case \"$*\" in *'" + st.failOn + "'*)\n")
		for _, line := range strings.Split(st.stderr, "\n") {
			b.WriteString("  echo '" + line + "' >&2\n")
		}
		b.WriteString("  exit 1;;\nesac\n")
	}
	if st.empty {
		b.WriteString(": > \"$last\"\n")
	} else {
		b.WriteString("printf 'audio' > \"$last\"\n")
	}
	b.WriteString("exit 0\n")

	if err := os.WriteFile(stub.Path, []byte(b.String()), 0o755); err != nil {
		t.Fatalf("write ffmpeg stub: %v", err)
	}
	return stub
}

// Invocations returns the argument lines recorded so far.
func (s *FFmpegStub) Invocations(t testing.TB) []string {
	t.Helper()
	data, err := os.ReadFile(s.LogPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		t.Fatalf("read invocation log: %v", err)
	}
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

// StubFFprobe writes an ffprobe stub that prints json on stdout.
func StubFFprobe(t testing.TB, json string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ffprobe")
	script := "#!/bin/sh\ncat <<'EOF'\n" + json + "\nEOF\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write ffprobe stub: %v", err)
	}
	return path
}

// ProbeJSON renders minimal ffprobe output with the given number of audio
// streams and container duration.
func ProbeJSON(audioStreams int, duration string) string {
	streams := []string{`{"index":0,"codec_type":"video","codec_name":"h264"}`}
	for i := 0; i < audioStreams; i++ {
		streams = append(streams, `{"index":`+strconv.Itoa(i+1)+`,"codec_type":"audio","codec_name":"aac"}`)
	}
	return `{"streams":[` + strings.Join(streams, ",") + `],"format":{"duration":"` + duration + `"}}`
}
