package builders

import "strings"

type clientConfig struct {
	typeProcessors map[string]func(any) any
	typeNames      map[string]string
}

type ClientOption func(*clientConfig)

// WithCustomTypeProcessor registers a function that converts scanned values
// of a database type (as reported by DatabaseTypeName, case insensitive).
// The first processor registered for a type wins.
func WithCustomTypeProcessor(typ string, fn func(any) any) ClientOption {
	return func(cc *clientConfig) {
		t := strings.ToLower(typ)
		_, ok := cc.typeProcessors[t]
		if ok {
			// processor already registered for this type
			return
		}

		cc.typeProcessors[t] = fn
	}
}

// WithCustomTypeName reports columns of a database type under another
// type name, for types whose processor changes what the values are.
// The first name registered for a type wins.
func WithCustomTypeName(typ, name string) ClientOption {
	return func(cc *clientConfig) {
		t := strings.ToLower(typ)
		if _, ok := cc.typeNames[t]; ok {
			return
		}

		cc.typeNames[t] = name
	}
}

// KeepBytes is a type processor that leaves binary values untouched,
// instead of converting them to text.
func KeepBytes(val any) any {
	return val
}
