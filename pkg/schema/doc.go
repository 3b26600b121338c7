// Package schema models form schemas as immutable tagged nodes and
// normalizes them. Leaf, container and union kinds describe data shape;
// the optional, nullable, default and effects wrappers decorate exactly one
// inner node and are removed with UnwrapOne, UnwrapDeep or Resolve before
// any other component inspects the shape.
package schema
