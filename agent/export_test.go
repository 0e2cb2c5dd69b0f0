package agent

// Clip exposes clip for external tests.
var Clip = clip
