package hpcl

import "fmt"

// Op mapping functions turn one Python container operation into the
// matching HPCL call text (spec.md §4.7's mapping table). typeName is
// the registered container type name (e.g. "vec_int32"); varName is
// the C variable holding that container instance. Each takes the
// already-emitted C text of its operands so the emitter composes these
// with whatever sub-expression rendering it used for them.

// Init is the zero-value instantiation emitted before the first
// push/insert a container literal's elements need (e.g. `xs = []`
// lowers to a declaration plus this call rather than a single
// expression, since HPCL containers are built incrementally).
func Init(typeName, varName string) string {
	return fmt.Sprintf("%s_init(&%s)", typeName, varName)
}

// Append is `list.append(v)` → `vec_T_push(&name, v)`.
func Append(typeName, varName, value string) string {
	return fmt.Sprintf("%s_push(&%s, %s)", typeName, varName, value)
}

// SubscriptRead is `list[i]` → `*vec_T_at(&name, i)`.
func SubscriptRead(typeName, varName, index string) string {
	return fmt.Sprintf("*%s_at(&%s, %s)", typeName, varName, index)
}

// SubscriptWrite is `list[i] = v` → `*vec_T_at(&name, i) = v`.
func SubscriptWrite(typeName, varName, index, value string) string {
	return fmt.Sprintf("*%s_at(&%s, %s) = %s", typeName, varName, index, value)
}

// Len is `len(list)` → `vec_T_size(&name)`.
func Len(typeName, varName string) string {
	return fmt.Sprintf("%s_size(&%s)", typeName, varName)
}

// DictAssign is `dict[k] = v` → `hmap_K_V_insert(&name, k, v)`.
func DictAssign(typeName, varName, key, value string) string {
	return fmt.Sprintf("%s_insert(&%s, %s, %s)", typeName, varName, key, value)
}

// SetContains is `k in set` → `hset_T_contains(&name, k)`.
func SetContains(typeName, varName, key string) string {
	return fmt.Sprintf("%s_contains(&%s, %s)", typeName, varName, key)
}

// Foreach is `for x in container` → an opaque foreach macro wrapping body.
func Foreach(typeName, varName, elemVar, bodyText string) string {
	return fmt.Sprintf("HPCL_FOREACH(%s, %s, %s) {\n%s\n}", typeName, elemVar, varName, bodyText)
}
