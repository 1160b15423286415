package translate

// DefaultSelector selects the element holding the detected language label,
// which renders as e.g. "ENGLISH - DETECTED".
const DefaultSelector = "#c1 > span"

// englishLabel is the first token of the label the translation page shows
// for English input. It is compared exactly.
const englishLabel = "ENGLISH"
