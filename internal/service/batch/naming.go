package batch

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/YALOKGARua/PhotoUnikalizer/internal/model"
)

// Naming template tokens.
const (
	TokenName   = "{name}"   // source base name without extension
	TokenIndex  = "{index}"  // 1-based position in the batch
	TokenIndex0 = "{index0}" // 0-based position in the batch
	TokenExt    = "{ext}"    // extension of the output format
)

// OutputName resolves the output file name of the file at index (0-based).
// Path separators are stripped so the result always stays inside the
// output directory.
func OutputName(template, source string, index int, f model.Format) string {
	if template == "" {
		template = model.DefaultNaming
	}

	base := filepath.Base(source)
	name := strings.TrimSuffix(base, filepath.Ext(base))

	r := strings.NewReplacer(
		TokenName, name,
		TokenIndex0, strconv.Itoa(index),
		TokenIndex, strconv.Itoa(index+1),
		TokenExt, f.Ext(),
	)
	out := r.Replace(template)

	out = strings.NewReplacer("/", "_", `\`, "_").Replace(out)
	if out == "" || out == "." || out == ".." {
		out = name + "." + f.Ext()
	}

	return out
}
