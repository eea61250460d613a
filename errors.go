package sheetpdf

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the library.
//
// Export failures wrap one of the stage errors together with the cause, so
// both can be tested with [errors.Is].
var (
	// ErrClosed is returned when attempting to use a closed [Exporter].
	ErrClosed = errors.New("sheetpdf: exporter is closed")

	// ErrAssembly reports a malformed payload, such as an item without a
	// name or price.
	ErrAssembly = errors.New("assembly failed")

	// ErrMeasurementTimeout reports that layout did not settle in time,
	// typically because an image never finished loading.
	ErrMeasurementTimeout = errors.New("measurement timed out")

	// ErrRasterization reports a failure of the rendering surface.
	ErrRasterization = errors.New("rasterization failed")

	// ErrComposition reports a failure building the output PDF.
	ErrComposition = errors.New("composition failed")

	// ErrDelivery reports a failure saving the PDF to a file or blob store.
	ErrDelivery = errors.New("delivery failed")
)

func stageError(stage, err error) error {
	return fmt.Errorf("sheetpdf: %w: %w", stage, err)
}
