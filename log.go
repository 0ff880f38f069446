package cubzh

import (
	"io"

	"github.com/sirupsen/logrus"
)

// logger backs every non-fatal recovery warning this package and its
// dependents emit (stray palette chunks after SHAPE, baked-lighting size
// mismatches, default-palette substitution fallbacks). It defaults to
// logrus's standard logger; SetLogger redirects or silences it.
var logger logrus.FieldLogger = logrus.StandardLogger()

// SetLogger overrides the logger used for recoverable-error warnings raised
// while loading or saving. Passing nil silences them.
func SetLogger(l logrus.FieldLogger) {
	if l == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		logger = discard
		return
	}
	logger = l
}
