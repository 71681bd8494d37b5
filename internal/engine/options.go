package engine

// ONNXOptions configures an ONNX Runtime session.
type ONNXOptions struct {
	ModelPath   string
	LibraryPath string
	Device      string
	Threads     int
}
