package agent

import (
	"github.com/kestrona/ecmacore/heap"
	"github.com/kestrona/ecmacore/values"
)

// ObjectData is the minimal ordinary object this core needs: a property
// bag. It backs both a Generator's lazily-allocated backing_object and
// every iterator-result object CreateIterResultObject produces. Anything
// richer (prototypes, exotic behaviour, property descriptors) belongs to
// the object model spec.md §1 excludes.
type ObjectData struct {
	Properties map[string]values.Value
}

func (o *ObjectData) Get(name string) values.Value {
	if o.Properties == nil {
		return values.Undefined
	}
	if v, ok := o.Properties[name]; ok {
		return v
	}
	return values.Undefined
}

// MarkValues queues every heap reference this object's own properties
// hold.
func (o *ObjectData) MarkValues(mark func(values.Ref)) {
	for _, v := range o.Properties {
		if v.Kind() == values.KindObject || v.Kind() == values.KindGenerator {
			if ref := v.Ref(); ref != nil {
				mark(ref)
			}
		}
	}
}

// Rewrite applies a post-sweep compaction table (via rewrite) to every
// property value this object holds.
func (o *ObjectData) Rewrite(rewrite func(values.Ref) values.Ref) {
	for k, v := range o.Properties {
		o.Properties[k] = v.Rewrite(rewrite)
	}
}

// CreateIterResultObject is the single external helper spec.md §6
// names: it returns an ordinary object with the two ECMA-262
// `{value, done}` properties every resume produces.
func (a *Agent) CreateIterResultObject(value values.Value, done bool) values.Value {
	idx := a.heap.Objects.Alloc(ObjectData{Properties: map[string]values.Value{
		"value": value,
		"done":  values.Bool(done),
	}})
	return values.Object(idx)
}

// Object dereferences an object-kind Value back to its ObjectData, for
// callers (tests, the REPL) that need to read `value`/`done` off an
// iterator-result object. It panics if v is not an object this agent's
// heap owns — the same "must not be readable after sweep" contract every
// other arena access in this core makes.
func (a *Agent) Object(v values.Value) *ObjectData {
	idx, ok := v.Ref().(heap.Index[ObjectData])
	if !ok {
		panic("agent: value is not an object this agent's heap owns")
	}
	return a.heap.Objects.Get(idx)
}
