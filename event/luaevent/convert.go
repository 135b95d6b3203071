package luaevent

import (
	"fmt"
	"math"
	"reflect"

	lua "github.com/yuin/gopher-lua"
)

// tableToPayload converts a Lua table to a payload. Non-string keys are
// formatted; functions and cyclic references become nil.
func tableToPayload(t *lua.LTable) Payload {
	visited := map[*lua.LTable]bool{t: true}
	p := make(Payload)
	t.ForEach(func(k, v lua.LValue) {
		p[keyString(k)] = toGoValue(v, visited)
	})
	return p
}

func keyString(k lua.LValue) string {
	switch kv := k.(type) {
	case lua.LString:
		return string(kv)
	case lua.LNumber:
		return formatNumber(float64(kv))
	default:
		return k.String()
	}
}

func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%v", f)
}

// toGoValue converts a Lua value. Integral numbers become int64 and
// sequences become []any.
func toGoValue(lv lua.LValue, visited map[*lua.LTable]bool) any {
	switch v := lv.(type) {
	case nil:
		return nil
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		f := float64(v)
		if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return int64(f)
		}
		return f
	case lua.LString:
		return string(v)
	case *lua.LTable:
		if visited[v] {
			return nil
		}
		visited[v] = true
		defer delete(visited, v)
		return tableToGo(v, visited)
	case *lua.LUserData:
		return v.Value
	default:
		return nil
	}
}

func tableToGo(t *lua.LTable, visited map[*lua.LTable]bool) any {
	if n := sequenceLen(t); n > 0 {
		arr := make([]any, n)
		for i := 1; i <= n; i++ {
			arr[i-1] = toGoValue(t.RawGetInt(i), visited)
		}
		return arr
	}

	m := make(map[string]any)
	t.ForEach(func(k, v lua.LValue) {
		m[keyString(k)] = toGoValue(v, visited)
	})
	return m
}

// sequenceLen returns n if the keys of t are exactly 1..n, or 0.
func sequenceLen(t *lua.LTable) int {
	count, maxN := 0, 0
	seq := true
	t.ForEach(func(k, _ lua.LValue) {
		count++
		kn, ok := k.(lua.LNumber)
		if !ok || float64(kn) != math.Trunc(float64(kn)) || kn < 1 {
			seq = false
			return
		}
		if n := int(kn); n > maxN {
			maxN = n
		}
	})
	if !seq || count != maxN {
		return 0
	}
	return maxN
}

// toLuaValue converts a Go value to Lua. Maps and slices become tables;
// values with no Lua counterpart become userdata.
func toLuaValue(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case lua.LValue:
		return val
	case bool:
		return lua.LBool(val)
	case string:
		return lua.LString(val)
	case []byte:
		return lua.LString(val)
	case int:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case uint32:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case map[string]any:
		t := L.NewTable()
		for k, item := range val {
			t.RawSetString(k, toLuaValue(L, item))
		}
		return t
	case []any:
		t := L.NewTable()
		for i, item := range val {
			t.RawSetInt(i+1, toLuaValue(L, item))
		}
		return t
	}
	return reflectToLua(L, v)
}

func reflectToLua(L *lua.LState, v any) lua.LValue {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return lua.LNumber(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return lua.LNumber(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return lua.LNumber(rv.Float())
	case reflect.String:
		return lua.LString(rv.String())
	case reflect.Pointer:
		if rv.IsNil() {
			return lua.LNil
		}
		return reflectToLua(L, rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		t := L.NewTable()
		for i := 0; i < rv.Len(); i++ {
			t.RawSetInt(i+1, toLuaValue(L, rv.Index(i).Interface()))
		}
		return t
	case reflect.Map:
		t := L.NewTable()
		iter := rv.MapRange()
		for iter.Next() {
			t.RawSet(toLuaValue(L, iter.Key().Interface()), toLuaValue(L, iter.Value().Interface()))
		}
		return t
	default:
		ud := L.NewUserData()
		ud.Value = v
		return ud
	}
}
