package artifacts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/loussodesigns/opts/internal/intake"
	"github.com/loussodesigns/opts/internal/orders"
	"github.com/loussodesigns/opts/pkg/enums"
	pkgerrors "github.com/loussodesigns/opts/pkg/errors"
	"github.com/loussodesigns/opts/pkg/logger"
	"github.com/loussodesigns/opts/pkg/qrcode"
	"github.com/loussodesigns/opts/pkg/workorder"
	"go.uber.org/multierr"
)

// CodeGenerator produces and stores an order's tracking code.
type CodeGenerator interface {
	MakeTrackingArtifact(ctx context.Context, orderID int64, content string) (qrcode.Artifact, error)
}

// DocumentRenderer renders one copy of a work order and names its file.
type DocumentRenderer interface {
	Render(ctx context.Context, doc workorder.Document, includeTrackingCode bool) ([]byte, error)
	FileName(clientName string, orderID int64, internal bool) string
}

// Saver persists rendered bytes and returns the web path.
type Saver interface {
	Save(ctx context.Context, relPath string, data []byte) (string, error)
}

// PathRecorder writes the artifact columns back onto the order.
type PathRecorder interface {
	RecordArtifacts(ctx context.Context, orderID int64, paths orders.ArtifactPaths) error
}

type FailureCounter interface {
	IncArtifactFailure(kind string)
}

// Params wires the pipeline collaborators.
type Params struct {
	BaseURL  string
	Codes    CodeGenerator
	Renderer DocumentRenderer
	Store    Saver
	Recorder PathRecorder
	Failures FailureCounter
	Logger   *logger.Logger
}

// Pipeline produces the tracking code and both work-order copies for a
// committed order. It never touches the order rows other than the single
// artifact write-back.
type Pipeline struct {
	baseURL  string
	codes    CodeGenerator
	renderer DocumentRenderer
	store    Saver
	recorder PathRecorder
	failures FailureCounter
	logg     *logger.Logger
}

func NewPipeline(p Params) (*Pipeline, error) {
	switch {
	case p.Codes == nil:
		return nil, fmt.Errorf("code generator required")
	case p.Renderer == nil:
		return nil, fmt.Errorf("document renderer required")
	case p.Store == nil:
		return nil, fmt.Errorf("artifact store required")
	case p.Recorder == nil:
		return nil, fmt.Errorf("path recorder required")
	}
	return &Pipeline{
		baseURL:  strings.TrimRight(p.BaseURL, "/"),
		codes:    p.Codes,
		renderer: p.Renderer,
		store:    p.Store,
		recorder: p.Recorder,
		failures: p.Failures,
		logg:     p.Logger,
	}, nil
}

// Input identifies the committed order and its printable content.
type Input struct {
	OrderID  int64
	Document workorder.Document
}

// Result reports what was produced. Err aggregates every individual failure
// under ARTIFACT_GENERATION_FAILED and is nil when nothing failed.
type Result struct {
	Paths   orders.ArtifactPaths
	Missing []enums.ArtifactKind
	Err     error
}

// Run generates the artifacts. When the tracking code fails, the internal
// copy is skipped since it would be indistinguishable from the client copy.
func (p *Pipeline) Run(ctx context.Context, in Input) Result {
	var (
		result Result
		errs   error
	)
	fail := func(kind enums.ArtifactKind, err error) {
		result.Missing = append(result.Missing, kind)
		errs = multierr.Append(errs, fmt.Errorf("%s: %w", kind, err))
		if p.failures != nil {
			p.failures.IncArtifactFailure(kind.String())
		}
	}

	doc := in.Document
	doc.OrderID = in.OrderID

	code, err := p.codes.MakeTrackingArtifact(ctx, in.OrderID, qrcode.ScanURL(p.baseURL, in.OrderID))
	if err != nil {
		fail(enums.ArtifactKindTrackingCode, err)
		fail(enums.ArtifactKindInternalDocument, fmt.Errorf("skipped without tracking code"))
	} else {
		result.Paths.QRPath = &code.WebPath
		doc.TrackingCodePNG = code.PNG

		if path, err := p.document(ctx, doc, true); err != nil {
			fail(enums.ArtifactKindInternalDocument, err)
		} else {
			result.Paths.InternalPDFPath = &path
		}
	}

	clientDoc := doc
	clientDoc.TrackingCodePNG = nil
	if path, err := p.document(ctx, clientDoc, false); err != nil {
		fail(enums.ArtifactKindClientDocument, err)
	} else {
		result.Paths.ClientPDFPath = &path
	}

	if err := p.recorder.RecordArtifacts(ctx, in.OrderID, result.Paths); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("record artifact paths: %w", err))
		// Files nobody can find from the order row count as not generated.
		result.Missing = append(result.Missing, unrecorded(result.Paths)...)
		result.Paths = orders.ArtifactPaths{}
	}

	if errs != nil {
		result.Err = pkgerrors.Wrap(pkgerrors.CodeArtifactGenerationFailed, errs, "order artifacts incomplete").
			WithDetails(map[string]any{"missing": result.Missing})
		if p.logg != nil {
			p.logg.Error(p.logg.WithOrderID(ctx, in.OrderID), "artifact generation incomplete", errs)
		}
	}
	return result
}

func (p *Pipeline) document(ctx context.Context, doc workorder.Document, internal bool) (string, error) {
	pdf, err := p.renderer.Render(ctx, doc, internal)
	if err != nil {
		return "", err
	}
	return p.store.Save(ctx, p.renderer.FileName(doc.ClientName, doc.OrderID, internal), pdf)
}

// NewDocument maps a validated order onto the printable work order.
func NewDocument(orderID int64, order intake.Order, at time.Time) workorder.Document {
	codes := make([]string, 0, len(order.Items))
	for _, item := range order.Items {
		codes = append(codes, item.Code)
	}
	spec := order.Spec
	return workorder.Document{
		OrderID:        orderID,
		Date:           at,
		ClientName:     order.Contact.Name,
		InvoiceNo:      order.InvoiceNo,
		ProductCodes:   codes,
		Quantity:       spec.Quantity,
		RepairGlue:     spec.RepairGlue,
		ReplaceSprings: spec.ReplaceSprings,
		BackStyle:      deref(spec.BackStyle),
		SeatStyle:      deref(spec.SeatStyle),
		NewBackInsert:  spec.NewBackInsert,
		NewSeatInsert:  spec.NewSeatInsert,
		BackInsertType: deref(spec.BackInsertType),
		SeatInsertType: deref(spec.SeatInsertType),
		TrimStyle:      deref(spec.TrimStyle),
		Placement:      deref(spec.Placement),
		VendorColor:    deref(spec.VendorColor),
		FrameFinish:    deref(spec.FrameFinish),
		Specs:          deref(spec.Specs),
		Topcoat:        deref(spec.Topcoat),
		FabricSpecs:    deref(spec.FabricSpecs),
		Initials:       deref(spec.CustomerInitials),
		Notes:          deref(order.Notes),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func unrecorded(paths orders.ArtifactPaths) []enums.ArtifactKind {
	var kinds []enums.ArtifactKind
	if paths.QRPath != nil {
		kinds = append(kinds, enums.ArtifactKindTrackingCode)
	}
	if paths.InternalPDFPath != nil {
		kinds = append(kinds, enums.ArtifactKindInternalDocument)
	}
	if paths.ClientPDFPath != nil {
		kinds = append(kinds, enums.ArtifactKindClientDocument)
	}
	return kinds
}
