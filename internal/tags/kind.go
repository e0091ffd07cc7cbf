package tags

import "github.com/phobologic/scopetags/internal/model"

// KindOf classifies a symbol by the category of its last descriptor.
// An empty descriptor list classifies as a variable.
func KindOf(descriptors []model.Descriptor) model.Kind {
	last, _ := lastDescriptor(descriptors)

	switch last.Suffix {
	case model.SuffixNamespace:
		return model.Namespace
	case model.SuffixPackage:
		return model.Package
	case model.SuffixMethod:
		return model.Method
	case model.SuffixType:
		return model.Type
	default:
		return model.Variable
	}
}

// lastDescriptor returns the innermost descriptor, or the zero Descriptor
// and false when there is none.
func lastDescriptor(descriptors []model.Descriptor) (model.Descriptor, bool) {
	if len(descriptors) == 0 {
		return model.Descriptor{}, false
	}
	return descriptors[len(descriptors)-1], true
}
