package jsg

import (
	"fmt"
	"reflect"
)

// Callback is a native entry point the host invokes for a member.
type Callback func(info *FunctionCallbackInfo)

type MemberKind int

const (
	MemberConstructor MemberKind = iota + 1
	MemberMethod
	MemberProperty
	MemberStaticMethod
)

func (k MemberKind) String() string {
	switch k {
	case MemberConstructor:
		return "constructor"
	case MemberMethod:
		return "method"
	case MemberProperty:
		return "property"
	case MemberStaticMethod:
		return "static method"
	}
	return fmt.Sprintf("MemberKind(%d)", int(k))
}

// Member is one entry of the schema a resource type exposes to the host.
type Member struct {
	Kind     MemberKind
	Name     string
	Callback Callback

	// Getter and Setter are only used by MemberProperty.
	Getter Callback
	Setter Callback
}

func Constructor(cb Callback) Member {
	return Member{Kind: MemberConstructor, Callback: cb}
}

func Method(name string, cb Callback) Member {
	return Member{Kind: MemberMethod, Name: name, Callback: cb}
}

func StaticMethod(name string, cb Callback) Member {
	return Member{Kind: MemberStaticMethod, Name: name, Callback: cb}
}

// Property declares an accessor pair. Accessor dispatch is not implemented,
// so building a descriptor for a type that declares one panics.
func Property(name string, getter, setter Callback) Member {
	return Member{Kind: MemberProperty, Name: name, Getter: getter, Setter: setter}
}

// Resource is implemented by every type that can be exposed to the host.
// Both methods must be callable on the zero value.
type Resource interface {
	ClassName() string
	Members() []Member
}

type ConstructorDescriptor struct {
	Callback Callback
}

type MethodDescriptor struct {
	Name     string
	Callback Callback
}

type StaticMethodDescriptor struct {
	Name     string
	Callback Callback
}

// ResourceDescriptor is the validated shape of a resource type, ready to be
// turned into a host template.
type ResourceDescriptor struct {
	Name          string
	Type          reflect.Type
	Constructor   *ConstructorDescriptor
	Methods       []MethodDescriptor
	StaticMethods []StaticMethodDescriptor
}

// DescriptorFor builds the descriptor of R. It panics on a malformed schema.
func DescriptorFor[R Resource]() *ResourceDescriptor {
	var zero R
	return BuildDescriptor(reflect.TypeFor[R](), zero.ClassName(), zero.Members())
}

// BuildDescriptor validates members and groups them by kind. Schemas are
// fixed at compile time, so every problem is reported as a panic.
func BuildDescriptor(typ reflect.Type, name string, members []Member) *ResourceDescriptor {
	if name == "" {
		invariant("BuildDescriptor", "resource %v has an empty class name", typ)
	}

	desc := &ResourceDescriptor{
		Name: name,
		Type: typ,
	}

	methodNames := map[string]struct{}{}
	staticNames := map[string]struct{}{}

	for i, member := range members {
		switch member.Kind {
		case MemberConstructor:
			if desc.Constructor != nil {
				invariant("BuildDescriptor", "%s declares more than one constructor", name)
			}
			if member.Callback == nil {
				invariant("BuildDescriptor", "%s constructor has no callback", name)
			}
			desc.Constructor = &ConstructorDescriptor{Callback: member.Callback}
		case MemberMethod:
			checkNamedMember(name, member, methodNames)
			desc.Methods = append(desc.Methods, MethodDescriptor{
				Name:     member.Name,
				Callback: member.Callback,
			})
		case MemberStaticMethod:
			checkNamedMember(name, member, staticNames)
			desc.StaticMethods = append(desc.StaticMethods, StaticMethodDescriptor{
				Name:     member.Name,
				Callback: member.Callback,
			})
		case MemberProperty:
			invariant("BuildDescriptor", "%s.%s: property accessors are not supported", name, member.Name)
		default:
			invariant("BuildDescriptor", "%s member %d has unknown kind %v", name, i, member.Kind)
		}
	}

	return desc
}

func checkNamedMember(class string, member Member, seen map[string]struct{}) {
	if member.Name == "" {
		invariant("BuildDescriptor", "%s has a %v without a name", class, member.Kind)
	}
	if member.Callback == nil {
		invariant("BuildDescriptor", "%s.%s has no callback", class, member.Name)
	}
	if _, ok := seen[member.Name]; ok {
		invariant("BuildDescriptor", "%s declares %v %q twice", class, member.Kind, member.Name)
	}
	seen[member.Name] = struct{}{}
}
