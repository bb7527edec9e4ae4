package pstream

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type node struct {
	Name   string
	Next   *node
	Kids   []*node
	Weight float64
}

func (n *node) MarshalPStream(s *Stream) error {
	if err := s.BeginObject("Node"); err != nil {
		return err
	}
	if err := s.WriteField("name", n.Name); err != nil {
		return err
	}
	if err := s.WriteField("next", n.Next); err != nil {
		return err
	}
	if err := s.WriteField("kids", n.Kids); err != nil {
		return err
	}
	if err := s.WriteField("weight", n.Weight); err != nil {
		return err
	}
	return s.EndObject()
}

func (n *node) UnmarshalPStream(s *Stream) error {
	if _, err := s.ReadObjectHeader("Node"); err != nil {
		return err
	}
	for {
		name, ok, err := s.NextField()
		if err != nil || !ok {
			return err
		}
		switch name {
		case "name":
			err = s.Read(&n.Name)
		case "next":
			err = s.Read(&n.Next)
		case "kids":
			err = s.Read(&n.Kids)
		case "weight":
			err = s.Read(&n.Weight)
		default:
			err = s.SkipValue()
		}
		if err != nil {
			return err
		}
	}
}

// sharedGraph builds root -> [a, a] with a.Next pointing back at root.
func sharedGraph() *node {
	root := &node{Name: "root", Weight: 1}
	a := &node{Name: "a", Next: root, Weight: 0.5}
	root.Kids = []*node{a, a}
	return root
}

func TestWriteRef_Output(t *testing.T) {
	got := encode(t, PlearnASCII, func(s *Stream) error {
		return s.Write(&node{Name: "x"})
	})
	assert.Equal(t, `*1-> Node( name = "x" ; next = *0 ; kids = 0[ ] ; weight = 0 ; ) `, string(got))
}

func TestWriteRef_BackReference(t *testing.T) {
	x := 5
	got := encode(t, PlearnASCII, func(s *Stream) error {
		return s.Write([]*int{&x, &x, nil})
	})
	assert.Equal(t, "3[ *1-> 5 *1 *0 ] ", string(got))
}

func TestGraph_SharedAndCyclic(t *testing.T) {
	for _, mode := range []Mode{PrettyASCII, PlearnASCII, PlearnBinary} {
		t.Run(mode.String(), func(t *testing.T) {
			root := sharedGraph()
			data, err := Marshal(root, mode)
			require.NoError(t, err)

			var got *node
			require.NoError(t, Unmarshal(data, mode, &got), "%q", data)

			if diff := cmp.Diff(root, got); diff != "" {
				t.Errorf("graph mismatch (-want +got):\n%s", diff)
			}
			require.Len(t, got.Kids, 2)
			assert.Same(t, got.Kids[0], got.Kids[1])
			assert.Same(t, got, got.Kids[0].Next)
		})
	}
}

func TestGraph_SelfLoop(t *testing.T) {
	n := &node{Name: "loop"}
	n.Next = n
	data, err := Marshal(n, PlearnASCII)
	require.NoError(t, err)
	assert.Contains(t, string(data), "next = *1 ;")

	var got *node
	require.NoError(t, Unmarshal(data, PlearnASCII, &got))
	assert.Same(t, got, got.Next)
}

func TestReadRef_Nil(t *testing.T) {
	got := &node{Name: "stale"}
	require.NoError(t, Unmarshal([]byte("*0"), PlearnASCII, &got))
	assert.Nil(t, got)
}

func TestReadRef_Undefined(t *testing.T) {
	var got *node
	err := Unmarshal([]byte("*3"), PlearnASCII, &got)
	require.ErrorIs(t, err, ErrUndefinedReference)
}

func TestReadPtr_TypeMismatch(t *testing.T) {
	s := decoder(t, []byte(`*1-> 5 *1`), PlearnASCII)
	p, err := ReadPtr(s, readAny[int])
	require.NoError(t, err)
	assert.Equal(t, 5, *p)

	_, err = ReadPtr(s, readAny[string])
	require.ErrorIs(t, err, ErrUnsupportedType)
}

func TestWritePtr_ReadPtr(t *testing.T) {
	x := "shared"
	data := encode(t, PlearnBinary, func(s *Stream) error {
		if err := WritePtr(s, &x, func(s *Stream, p *string) error { return s.WriteString(*p) }); err != nil {
			return err
		}
		return WritePtr(s, &x, nil)
	})
	s := decoder(t, data, PlearnBinary)
	a, err := ReadPtr(s, readAny[string])
	require.NoError(t, err)
	b, err := ReadPtr(s, readAny[string])
	require.NoError(t, err)
	assert.Equal(t, "shared", *a)
	assert.Same(t, a, b)
}

func TestResetReferences(t *testing.T) {
	x := 1
	got := encode(t, PlearnASCII, func(s *Stream) error {
		if err := s.Write(&x); err != nil {
			return err
		}
		s.ResetReferences()
		return s.Write(&x)
	})
	assert.Equal(t, "*1-> 1 *1-> 1 ", string(got))
}

func TestObject_UnknownFieldSkipped(t *testing.T) {
	in := `*1-> Node( name = "n"; extra = Other( x = [1, (2;3)] ; s = "a;)" ); weight = 2 )`
	var got *node
	require.NoError(t, Unmarshal([]byte(in), PlearnASCII, &got))
	assert.Equal(t, "n", got.Name)
	assert.Equal(t, 2.0, got.Weight)
}

func TestObject_WrongClass(t *testing.T) {
	var got *node
	err := Unmarshal([]byte(`*1-> Leaf( )`), PlearnASCII, &got)
	require.ErrorIs(t, err, ErrInvalidFormat)
	assert.Contains(t, err.Error(), "Leaf")
}

func TestObject_Unterminated(t *testing.T) {
	var got *node
	err := Unmarshal([]byte(`*1-> Node( name = "n";`), PlearnASCII, &got)
	require.ErrorIs(t, err, ErrUnmatchedBracket)
}
