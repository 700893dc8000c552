package llheap

import "testing"

func TestCurrentIsStableWithinAnOSThread(t *testing.T) {
	m := newTestMaster(t)

	h1 := Current(m)
	h2 := Current(m)

	if h1 != h2 {
		t.Fatal("Current should return the same handle on repeated calls from the same OS thread")
	}

	ReleaseCurrent()
}

func TestReleaseCurrentForgetsBinding(t *testing.T) {
	m := newTestMaster(t)

	h1 := Current(m)
	ReleaseCurrent()

	h2 := Current(m)
	if h1 != h2 {
		t.Fatal("expected the handle freed by ReleaseCurrent to be reused")
	}

	ReleaseCurrent()
}
