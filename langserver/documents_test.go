package langserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocumentStoreLifecycle(t *testing.T) {
	store := NewDocumentStore()

	_, ok := store.Get("file:///a.cl")
	assert.False(t, ok)

	store.Open("file:///a.cl", "kernel void foo() {}")

	text, ok := store.Get("file:///a.cl")
	assert.True(t, ok)
	assert.Equal(t, "kernel void foo() {}", text)

	store.Update("file:///a.cl", "kernel void bar() {}")

	text, ok = store.Get("file:///a.cl")
	assert.True(t, ok)
	assert.Equal(t, "kernel void bar() {}", text)

	store.Close("file:///a.cl")

	_, ok = store.Get("file:///a.cl")
	assert.False(t, ok)
}
