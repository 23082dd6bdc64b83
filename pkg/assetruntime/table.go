// Package assetruntime is the runtime half of assetpack. Generated
// bootstrap code calls Boot at program start to rebuild the lookup table
// from the embedded manifest, extract embedded payloads on first run, and
// route the process's resolution entry points through the table.
package assetruntime

import "sync"

// DefaultGlobalKey names the table used when no global key is configured.
const DefaultGlobalKey = "__bundleAssets"

// LookupFunc consults an override table. A miss returns ("", false),
// never an error.
type LookupFunc func(key string) (string, bool)

var (
	globalMu sync.Mutex
	tables   = map[string]*Table{}
	helpers  = map[string]LookupFunc{}
)

// TableFor returns the process-wide table registered under globalKey,
// creating it on first use. Tables live for the process lifetime; repeated
// initializations merge into them, they are never replaced or torn down.
func TableFor(globalKey string) *Table {
	if globalKey == "" {
		globalKey = DefaultGlobalKey
	}
	globalMu.Lock()
	defer globalMu.Unlock()
	t, ok := tables[globalKey]
	if !ok {
		t = &Table{entries: map[string]string{}}
		tables[globalKey] = t
	}
	return t
}

// Lookup consults the table under globalKey.
func Lookup(globalKey, key string) (string, bool) {
	return TableFor(globalKey).Lookup(key)
}

// Helper returns the lookup helper registered under name, or nil.
func Helper(name string) LookupFunc {
	globalMu.Lock()
	defer globalMu.Unlock()
	return helpers[name]
}

func registerHelper(name string, t *Table) {
	globalMu.Lock()
	defer globalMu.Unlock()
	if _, ok := helpers[name]; ok {
		return
	}
	helpers[name] = t.Lookup
}

// Table maps lookup keys to final asset paths.
type Table struct {
	mu        sync.Mutex
	entries   map[string]string
	installed bool
}

// Register maps key to path unless the key is already claimed. The first
// registration of a key wins; later duplicates are ignored so two assets
// sharing an alias cannot overwrite each other nondeterministically.
func (t *Table) Register(key, path string) bool {
	if key == "" {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.entries[key]; ok {
		return false
	}
	t.entries[key] = path
	return true
}

func (t *Table) Lookup(key string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	path, ok := t.entries[key]
	return path, ok
}

func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
