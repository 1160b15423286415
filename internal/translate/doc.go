// Package translate decides whether a piece of text is English by asking the
// Google Translate language detector.
//
// # Components
//
//   - Encoder: turns arbitrary text into a translate.google.com query URL
//     using a fixed character-substitution table
//   - Classifier: loads that URL in a Page and reads the detected language
//     label from a single element
//
// # Usage
//
//	enc := translate.NewEncoder(translate.DefaultTable())
//	c := translate.NewClassifier(session, translate.WithEncoder(enc))
//	english, err := c.IsEnglish(ctx, "Learn Go from scratch")
//	if errors.Is(err, translate.ErrLookupFailure) {
//	    // the page did not render the detection label
//	}
//
// The Page is injected by the caller. It is the only stateful collaborator,
// and it must not be shared between concurrent classifications because
// every lookup replaces the page's current document.
package translate
