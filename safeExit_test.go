package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeExit(t *testing.T) {
	s := NewSafeExit()
	var order []int
	s.Register(func() { order = append(order, 1) })
	s.Register(func() { order = append(order, 2) })

	select {
	case <-s.Done():
		t.Fatal("done before exit")
	default:
	}

	s.exit()
	s.exit()

	<-s.Done()
	assert.Equal(t, []int{1, 2}, order)
}
