package dart

// Push appends vals to an array.
func (v Value) Push(vals ...any) error {
	return v.splice("push", false, vals)
}

// Unshift prepends vals to an array, keeping their order.
func (v Value) Unshift(vals ...any) error {
	return v.splice("unshift", true, vals)
}

func (v Value) splice(op string, front bool, vals []any) error {
	if err := v.expect(op, TypeArray); err != nil {
		return err
	}
	if v.fin {
		return errFinalized(op)
	}
	children := make([]Value, 0, len(vals))
	for _, x := range vals {
		c, err := v.child(op, x)
		if err != nil {
			for _, c := range children {
				releaseValue(c)
			}
			return err
		}
		children = append(children, c)
	}

	n := v.node
	n.lock()
	defer n.unlock()
	if n.kind == TypeInvalid {
		for _, c := range children {
			releaseValue(c)
		}
		return errReleased(op)
	}
	if front {
		n.vals = append(children, n.vals...)
	} else {
		n.vals = append(n.vals, children...)
	}
	return nil
}

// Pop removes and returns the last element of an array. The caller owns the
// result.
func (v Value) Pop() (Value, error) {
	return v.take("pop", -1)
}

// Shift removes and returns the first element of an array.
func (v Value) Shift() (Value, error) {
	return v.take("shift", 0)
}

func (v Value) take(op string, i int) (Value, error) {
	if err := v.expect(op, TypeArray); err != nil {
		return Value{}, err
	}
	if v.fin {
		return Value{}, errFinalized(op)
	}
	n := v.node
	n.lock()
	defer n.unlock()
	if n.kind == TypeInvalid {
		return Value{}, errReleased(op)
	}
	size := len(n.vals)
	if size == 0 {
		return Value{}, logicErrf(op, "array is empty")
	}
	j, _ := wrapIndex(i, size)
	return n.removeAt(j), nil
}

// First returns the first element of an array.
func (v Value) First() (Value, error) {
	if err := v.expect("first", TypeArray); err != nil {
		return Value{}, err
	}
	return v.lookupIndex(0)
}

// Last returns the last element of an array.
func (v Value) Last() (Value, error) {
	if err := v.expect("last", TypeArray); err != nil {
		return Value{}, err
	}
	return v.lookupIndex(-1)
}
