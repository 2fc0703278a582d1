package async

import "reflect"

// sameDeps 逐项做浅比较：长度不同视为变化。
func sameDeps(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !same(a[i], b[i]) {
			return false
		}
	}
	return true
}

// same 是 identity 语义：引用类型比较底层指针，可比较的值类型比较值，
// 不可比较的值（例如含切片的结构体）总视为不同。
func same(x, y any) bool {
	if x == nil || y == nil {
		return x == nil && y == nil
	}
	vx, vy := reflect.ValueOf(x), reflect.ValueOf(y)
	if vx.Type() != vy.Type() {
		return false
	}
	switch vx.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return vx.Pointer() == vy.Pointer()
	case reflect.Slice:
		return vx.Pointer() == vy.Pointer() && vx.Len() == vy.Len()
	}
	if !vx.Comparable() {
		return false
	}
	return vx.Equal(vy)
}
