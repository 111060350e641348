package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"

	"vtoa/internal/config"
	"vtoa/internal/services"
)

// OutputPath returns <dir>/<stem><suffix><ext> for candidate. The source file
// itself is never a valid output.
func OutputPath(candidate string, job config.Job) (string, error) {
	dir := filepath.Dir(candidate)
	base := filepath.Base(candidate)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	output := filepath.Join(dir, stem+job.OutputSuffix+job.OutputExt)
	if filepath.Clean(output) == filepath.Clean(candidate) {
		return "", services.Wrap(services.ErrConfiguration, "output", "",
			fmt.Sprintf("output path %s would overwrite the source", output), nil)
	}
	return output, nil
}
