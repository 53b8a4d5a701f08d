// Package onnx runs the local embedding model: a BGE-family BERT encoder
// executed through ONNX Runtime, with a HuggingFace tokenizer. The parent
// embed package wraps it in the Provider interface; nothing here knows
// about queries, passages, or normalization.
package onnx

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/daulet/tokenizers"
	onnxruntime "github.com/yalue/onnxruntime_go"
)

// Dimensions is the vector width of the bundled BGE-small model.
const Dimensions = 384

// maxTokens caps sequence length. BGE-small was trained at 512; longer
// inputs degrade quality and blow up memory quadratically.
const maxTokens = 512

// modelFiles must all exist under a model directory for Exists to report
// true and Load to succeed.
var modelFiles = []string{"model.onnx", "tokenizer.json", "config.json"}

// Exists reports whether modelDir holds a complete model.
func Exists(modelDir string) bool {
	for _, f := range modelFiles {
		if _, err := os.Stat(filepath.Join(modelDir, f)); err != nil {
			return false
		}
	}
	return true
}

// Model is a loaded encoder session plus its tokenizer. Safe for
// concurrent EmbedBatch calls; ONNX Runtime serializes internally.
type Model struct {
	session   *onnxruntime.DynamicAdvancedSession
	tokenizer *tokenizers.Tokenizer
}

// Load opens the model and tokenizer files under modelDir.
func Load(modelDir string) (*Model, error) {
	tok, err := tokenizers.FromFile(filepath.Join(modelDir, "tokenizer.json"))
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}

	onnxPath := filepath.Join(modelDir, "model.onnx")
	inputs, outputs, err := onnxruntime.GetInputOutputInfo(onnxPath)
	if err != nil {
		tok.Close()
		return nil, fmt.Errorf("inspect model: %w", err)
	}
	inputNames := make([]string, len(inputs))
	for i := range inputs {
		inputNames[i] = inputs[i].Name
	}
	outputNames := make([]string, len(outputs))
	for i := range outputs {
		outputNames[i] = outputs[i].Name
	}

	session, err := onnxruntime.NewDynamicAdvancedSession(onnxPath, inputNames, outputNames, nil)
	if err != nil {
		tok.Close()
		return nil, fmt.Errorf("create session: %w", err)
	}

	return &Model{session: session, tokenizer: tok}, nil
}

// encoded is one tokenized input, truncated to maxTokens.
type encoded struct {
	ids     []int64
	mask    []int64
	typeIDs []int64
}

func (m *Model) encode(text string) encoded {
	enc := m.tokenizer.EncodeWithOptions(text, true,
		tokenizers.WithReturnAttentionMask(),
		tokenizers.WithReturnTypeIDs(),
	)
	n := len(enc.IDs)
	if n > maxTokens {
		n = maxTokens
	}
	out := encoded{
		ids:     make([]int64, n),
		mask:    make([]int64, n),
		typeIDs: make([]int64, n),
	}
	for i := 0; i < n; i++ {
		out.ids[i] = int64(enc.IDs[i])
		out.mask[i] = int64(enc.AttentionMask[i])
		out.typeIDs[i] = int64(enc.TypeIDs[i])
	}
	return out
}

// padBatch flattens a ragged batch into row-major [batch, maxLen] arrays,
// zero-padded (0 is the BERT [PAD] id, and a 0 attention mask hides it).
func padBatch(batch []encoded) (ids, mask, typeIDs []int64, maxLen int) {
	for _, e := range batch {
		if len(e.ids) > maxLen {
			maxLen = len(e.ids)
		}
	}
	n := len(batch)
	ids = make([]int64, n*maxLen)
	mask = make([]int64, n*maxLen)
	typeIDs = make([]int64, n*maxLen)
	for i, e := range batch {
		copy(ids[i*maxLen:], e.ids)
		copy(mask[i*maxLen:], e.mask)
		copy(typeIDs[i*maxLen:], e.typeIDs)
	}
	return ids, mask, typeIDs, maxLen
}

// clsPool extracts each sequence's [CLS] (position 0) vector from a
// row-major [batch, seqLen, dim] hidden-state tensor.
func clsPool(hidden []float32, batchSize, seqLen, dim int) ([][]float32, error) {
	out := make([][]float32, batchSize)
	for i := 0; i < batchSize; i++ {
		start := i * seqLen * dim
		end := start + dim
		if end > len(hidden) {
			return nil, fmt.Errorf("output tensor too small: need %d floats, have %d", end, len(hidden))
		}
		v := make([]float32, dim)
		copy(v, hidden[start:end])
		out[i] = v
	}
	return out, nil
}

// EmbedBatch encodes texts and returns one Dimensions-wide vector per
// input, in order.
func (m *Model) EmbedBatch(texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	batch := make([]encoded, len(texts))
	for i, t := range texts {
		batch[i] = m.encode(t)
	}
	ids, mask, typeIDs, maxLen := padBatch(batch)

	shape := onnxruntime.NewShape(int64(len(texts)), int64(maxLen))
	idTensor, err := onnxruntime.NewTensor(shape, ids)
	if err != nil {
		return nil, fmt.Errorf("input tensor: %w", err)
	}
	defer idTensor.Destroy()
	maskTensor, err := onnxruntime.NewTensor(shape, mask)
	if err != nil {
		return nil, fmt.Errorf("attention tensor: %w", err)
	}
	defer maskTensor.Destroy()
	typeTensor, err := onnxruntime.NewTensor(shape, typeIDs)
	if err != nil {
		return nil, fmt.Errorf("token-type tensor: %w", err)
	}
	defer typeTensor.Destroy()

	outputs := []onnxruntime.Value{nil}
	if err := m.session.Run([]onnxruntime.Value{idTensor, maskTensor, typeTensor}, outputs); err != nil {
		return nil, fmt.Errorf("inference: %w", err)
	}
	if outputs[0] == nil {
		return nil, fmt.Errorf("inference produced no output tensor")
	}
	result, ok := outputs[0].(*onnxruntime.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected output tensor type %T", outputs[0])
	}
	defer result.Destroy()

	return clsPool(result.GetData(), len(texts), maxLen, Dimensions)
}

// Close releases the tokenizer and the ONNX session.
func (m *Model) Close() error {
	if m.tokenizer != nil {
		m.tokenizer.Close()
	}
	if m.session != nil {
		return m.session.Destroy()
	}
	return nil
}
