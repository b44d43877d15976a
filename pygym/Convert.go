package pygym

import (
	"fmt"

	python "github.com/DataDog/go-python3"
	"github.com/emer/etable/etensor"
	"github.com/samuelfneumann/gymwrap"
)

// pythonError fetches and clears the pending Python exception and
// returns it as an error wrapping gymwrap.ErrPython. The GIL must be
// held.
func pythonError() error {
	if python.PyErr_Occurred() == nil {
		return fmt.Errorf("%w: call failed without setting an exception",
			gymwrap.ErrPython)
	}

	ptype, pvalue, ptraceback := python.PyErr_Fetch()
	defer ptype.DecRef()
	defer pvalue.DecRef()
	defer ptraceback.DecRef()

	name := "Exception"
	if ptype != nil {
		if n := ptype.GetAttrString("__name__"); n != nil {
			name = python.PyUnicode_AsUTF8(n)
			n.DecRef()
		}
	}
	if pvalue == nil {
		return fmt.Errorf("%w: %v", gymwrap.ErrPython, name)
	}
	return fmt.Errorf("%w: %v: %v", gymwrap.ErrPython, name, str(pvalue))
}

// str returns the result of calling str() on obj. Borrows obj.
func str(obj *python.PyObject) string {
	s := obj.Str()
	if s == nil {
		python.PyErr_Clear()
		return "<unprintable>"
	}
	defer s.DecRef()
	return python.PyUnicode_AsUTF8(s)
}

// F64SliceFromIter converts a Python iterable to a []float64. Borrows
// python.PyObject reference.
func F64SliceFromIter(obj *python.PyObject) ([]float64, error) {
	seq := obj.GetIter()
	if seq == nil {
		return nil, fmt.Errorf("f64SliceFromIter: %w", pythonError())
	}
	defer seq.DecRef()
	next := seq.GetAttrString("__next__")
	defer next.DecRef()

	data := make([]float64, obj.Length())
	for i := range data {
		item := next.CallObject(nil)
		if item == nil {
			return nil, fmt.Errorf("f64SliceFromIter: nil item at index %v: %w",
				i, pythonError())
		}

		data[i] = python.PyFloat_AsDouble(item)
		item.DecRef()
		if python.PyErr_Occurred() != nil {
			return nil, fmt.Errorf("f64SliceFromIter: item at index %v: %w",
				i, pythonError())
		}
	}

	return data, nil
}

// IntSliceFromIter converts a Python iterable to a []int. Borrows
// python.PyObject reference.
func IntSliceFromIter(obj *python.PyObject) ([]int, error) {
	seq := obj.GetIter()
	if seq == nil {
		return nil, fmt.Errorf("intSliceFromIter: %w", pythonError())
	}
	defer seq.DecRef()
	next := seq.GetAttrString("__next__")
	defer next.DecRef()

	data := make([]int, obj.Length())
	for i := range data {
		item := next.CallObject(nil)
		if item == nil {
			return nil, fmt.Errorf("intSliceFromIter: nil item at index %v: %w",
				i, pythonError())
		}

		if !python.PyLong_Check(item) {
			item.DecRef()
			return nil, fmt.Errorf("intSliceFromIter: item at index %v is "+
				"not an int", i)
		}

		data[i] = python.PyLong_AsLong(item)
		item.DecRef()
	}

	return data, nil
}

// F64ToList converts a []float64 to a Python List. Creates a new
// python.PyObject reference.
func F64ToList(slice []float64) (*python.PyObject, error) {
	list := python.PyList_New(len(slice))
	for i, elem := range slice {
		float := python.PyFloat_FromDouble(elem)
		n := python.PyList_SetItem(list, i, float)
		if n != 0 {
			err := pythonError()
			float.DecRef()
			list.DecRef()
			return nil, fmt.Errorf("f64ToList: could not set Python list "+
				"item: %w", err)
		}
	}
	return list, nil
}

// tensorFromArray converts anything numpy.asarray accepts into a
// tensor of the same shape. Borrows python.PyObject reference.
func tensorFromArray(obj *python.PyObject) (*etensor.Float64, error) {
	arr := numpy.CallMethodArgs("asarray", obj)
	if arr == nil {
		return nil, fmt.Errorf("tensorFromArray: %w", pythonError())
	}
	defer arr.DecRef()

	pyShape := arr.GetAttrString("shape")
	if pyShape == nil {
		return nil, fmt.Errorf("tensorFromArray: %w", pythonError())
	}
	defer pyShape.DecRef()
	shape, err := IntSliceFromIter(pyShape)
	if err != nil {
		return nil, fmt.Errorf("tensorFromArray: could not decode shape: %w",
			err)
	}

	list := arr.CallMethodArgs("ravel")
	if list == nil {
		return nil, fmt.Errorf("tensorFromArray: %w", pythonError())
	}
	defer list.DecRef()
	values, err := F64SliceFromIter(list)
	if err != nil {
		return nil, fmt.Errorf("tensorFromArray: could not decode values: %w",
			err)
	}
	if len(values) != gymwrap.ShapeSize(shape) {
		return nil, fmt.Errorf("tensorFromArray: %v values for shape %v",
			len(values), shape)
	}

	return gymwrap.NewTensor(shape, values), nil
}

// toGo converts a Python value into its Go counterpart: None to nil,
// bool, int, float and str to their Go types, dicts to maps, lists and
// tuples to slices and NumPy arrays to tensors. Anything else becomes
// its str(). Borrows python.PyObject reference.
func toGo(obj *python.PyObject) (interface{}, error) {
	switch {
	case obj == nil || obj == python.Py_None:
		return nil, nil

	case python.PyBool_Check(obj):
		return obj == python.Py_True, nil

	case python.PyLong_Check(obj):
		return python.PyLong_AsLong(obj), nil

	case python.PyFloat_Check(obj):
		return python.PyFloat_AsDouble(obj), nil

	case python.PyUnicode_Check(obj):
		return python.PyUnicode_AsUTF8(obj), nil

	case python.PyDict_Check(obj):
		m, err := dictToInfo(obj)
		return map[string]interface{}(m), err

	case python.PyList_Check(obj), python.PyTuple_Check(obj):
		n := obj.Length()
		out := make([]interface{}, n)
		for i := 0; i < n; i++ {
			var item *python.PyObject
			if python.PyList_Check(obj) {
				item = python.PyList_GetItem(obj, i)
			} else {
				item = python.PyTuple_GetItem(obj, i)
			}
			v, err := toGo(item)
			if err != nil {
				return nil, fmt.Errorf("toGo: item %v: %w", i, err)
			}
			out[i] = v
		}
		return out, nil

	case obj.HasAttrString("dtype") && obj.HasAttrString("shape"):
		// NumPy scalars become Go scalars, arrays become tensors
		ndim := obj.GetAttrString("ndim")
		defer ndim.DecRef()
		if ndim != nil && python.PyLong_AsLong(ndim) == 0 {
			item := obj.CallMethodArgs("item")
			if item == nil {
				return nil, fmt.Errorf("toGo: %w", pythonError())
			}
			defer item.DecRef()
			return toGo(item)
		}
		return tensorFromArray(obj)

	default:
		return str(obj), nil
	}
}

// dictToInfo converts a Python dict with string keys into a
// gymwrap.Info. Non-string keys are converted with str(). Borrows
// python.PyObject reference.
func dictToInfo(dict *python.PyObject) (gymwrap.Info, error) {
	info := make(gymwrap.Info)
	if dict == nil || dict == python.Py_None {
		return info, nil
	}
	if !python.PyDict_Check(dict) {
		return nil, fmt.Errorf("dictToInfo: info is not a dict")
	}

	keys := python.PyDict_Keys(dict)
	if keys == nil {
		return nil, fmt.Errorf("dictToInfo: %w", pythonError())
	}
	defer keys.DecRef()

	for i := 0; i < python.PyList_Size(keys); i++ {
		key := python.PyList_GetItem(keys, i)
		name := str(key)
		value, err := toGo(python.PyDict_GetItem(dict, key))
		if err != nil {
			return nil, fmt.Errorf("dictToInfo: key %v: %w", name, err)
		}
		info[name] = value
	}
	return info, nil
}

// truthy returns whether a Python bool or number is true. Borrows
// python.PyObject reference.
func truthy(obj *python.PyObject) bool {
	if obj == python.Py_True {
		return true
	} else if obj == python.Py_False || obj == python.Py_None {
		return false
	}

	// NumPy booleans and numbers
	v := python.PyFloat_AsDouble(obj)
	if python.PyErr_Occurred() != nil {
		python.PyErr_Clear()
		return false
	}
	return v != 0
}
