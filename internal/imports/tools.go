// Package imports registers every tool through its package init.
package imports

import (
	_ "github.com/vishalharkal15/pdf-convert/internal/tools/compress"
	_ "github.com/vishalharkal15/pdf-convert/internal/tools/info"
	_ "github.com/vishalharkal15/pdf-convert/internal/tools/merge"
	_ "github.com/vishalharkal15/pdf-convert/internal/tools/split"
)
