package demo

import "time"

// The demo cast: small types standing in for the application classes a
// real caller would patch.

type DataService struct{}

func (DataService) FetchData() string {
	time.Sleep(2 * time.Millisecond)
	return "live data"
}

type WebHandler struct{}

func (WebHandler) GetURL(path string) string {
	return "https://origin.example.com" + path
}

type BaseService struct{}

func (BaseService) FetchData() string { return "base data" }

// ChildA and ChildB both promote FetchData from BaseService. Patching one
// must leave the other and the base untouched.
type ChildA struct{ BaseService }

type ChildB struct{ BaseService }

type ElementStore struct{ Items []int }

func (s ElementStore) ElementAt(i int) int { return s.Items[i] }

// PageAbility mimics a navigation framework's lifecycle participant; its
// lifecycle method is intercepted like any other.
type PageAbility struct{}

func (PageAbility) OnForeground(route string) string { return "foreground:" + route }

// Owners maps plan aliases to the demo types.
func Owners() map[string]interface{} {
	return map[string]interface{}{
		"dataService":  DataService{},
		"webHandler":   WebHandler{},
		"childA":       ChildA{},
		"childB":       ChildB{},
		"elementStore": ElementStore{},
		"pageAbility":  PageAbility{},
	}
}
