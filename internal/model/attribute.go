package model

import "strings"

// AttributeSeparator splits a dynamic attribute name into namespace and key.
const AttributeSeparator = "/"

// AttributeRow is one raw row from a schema's attribute table.
type AttributeRow struct {
	TenantID int64
	Name     string
	Value    string
}

// IsDynamicAttributeName reports whether a raw attribute name carries a
// namespace separator. Rows without one are not dynamic attributes and are
// skipped during scans.
func IsDynamicAttributeName(name string) bool {
	return strings.Contains(name, AttributeSeparator)
}

// ParseAttributeName splits a dynamic attribute name into its namespace
// and key. Unlike the lenient scan path, calling this directly on a name
// without a separator fails with MalformedAttributeNameError.
func ParseAttributeName(name string) (namespace, key string, err error) {
	idx := strings.Index(name, AttributeSeparator)
	if idx < 0 {
		return "", "", &MalformedAttributeNameError{Name: name}
	}
	return name[:idx], name[idx+len(AttributeSeparator):], nil
}
