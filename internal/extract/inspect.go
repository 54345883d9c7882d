package extract

import (
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Info is the preflight summary of a document, gathered before any model
// call so broken or encrypted files fail fast.
type Info struct {
	PageCount int
	// HasImageStreams is true when the document embeds image XObjects.
	// A text-light document with image streams is usually a scan and
	// converts better in vision mode.
	HasImageStreams bool
}

// Inspect validates the document structure and reports page count and
// image presence. Validation failures (corrupt file, unsupported
// encryption) surface as *ExtractionError.
func Inspect(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, &ExtractionError{Err: err}
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return Info{}, &ExtractionError{Err: fmt.Errorf("pdfcpu read: %w", err)}
	}
	if ctx.PageCount == 0 {
		return Info{}, &ExtractionError{Err: fmt.Errorf("document has no pages")}
	}
	return Info{
		PageCount:       ctx.PageCount,
		HasImageStreams: detectImageStreams(ctx),
	}, nil
}

// detectImageStreams checks for image XObjects, first via the optimizer's
// per-page index, then by scanning the xref table.
func detectImageStreams(ctx *model.Context) bool {
	if ctx.Optimize != nil {
		for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
			if len(pdfcpu.ImageObjNrs(ctx, pageNr)) > 0 {
				return true
			}
		}
	}
	for _, entry := range ctx.Table {
		if entry == nil || entry.Free || entry.Compressed {
			continue
		}
		sd, ok := entry.Object.(types.StreamDict)
		if !ok {
			continue
		}
		if subtype, found := sd.Find("Subtype"); found {
			if name, isName := subtype.(types.Name); isName && name == "Image" {
				return true
			}
		}
	}
	return false
}
