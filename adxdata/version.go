package adxdata

// version is the semantic version of this module, sent on every request for tracing.
const version = "1.0.0"
