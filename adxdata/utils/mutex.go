package utils

// RWMutex abstracts sync.RWMutex so synchronous code paths can substitute a no-op lock.
type RWMutex interface {
	Lock()
	Unlock()
	RLock()
	RUnlock()
}

// FakeMutex is a no-op RWMutex for single-goroutine use.
type FakeMutex struct{}

func (f *FakeMutex) Lock()    {}
func (f *FakeMutex) Unlock()  {}
func (f *FakeMutex) RLock()   {}
func (f *FakeMutex) RUnlock() {}
