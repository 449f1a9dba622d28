package uuid

import (
	"fmt"
	"sync"

	gonanoid "github.com/matoous/go-nanoid"
)

// Generator id generator
type Generator interface {
	Generate() (string, error)
}

// CardAlphabet url and path safe, without look-alike characters
const CardAlphabet = "23456789abcdefghjkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ"

// NanoIDGenerator ids using NanoID, with the default alphabet unless Alphabet is set
type NanoIDGenerator struct {
	Length   int
	Alphabet string
}

var _ Generator = &NanoIDGenerator{}

// NewNanoIDGenerator create a new `NanoIDGenerator` instance
func NewNanoIDGenerator(length int, alphabet string) *NanoIDGenerator {
	if length < 1 {
		panic("length must be larger than 1")
	}
	return &NanoIDGenerator{Length: length, Alphabet: alphabet}
}

// Generate generate id
func (ns *NanoIDGenerator) Generate() (string, error) {
	if ns.Alphabet == "" {
		return gonanoid.Nanoid(ns.Length)
	}
	return gonanoid.Generate(ns.Alphabet, ns.Length)
}

// SequenceGenerator predictable ids `<prefix>-<n>`, for tests and fixtures
type SequenceGenerator struct {
	Prefix string

	mu   sync.Mutex
	next int
}

var _ Generator = &SequenceGenerator{}

// Generate next id of the sequence, starting at 1
func (sg *SequenceGenerator) Generate() (string, error) {
	sg.mu.Lock()
	defer sg.mu.Unlock()
	sg.next++
	return fmt.Sprintf("%s-%d", sg.Prefix, sg.next), nil
}
