// Package attr provides typed, schema-validated attributes and containers.
//
// An Attribute is a named value of one of three kinds (categorical,
// numeric, boolean) with an optional confidence score. Attributes
// accumulate in a Container, which may enforce a ContainerSchema that
// restricts which names, kinds, and values are admitted.
//
// Serialized attributes and schemas embed a string discriminator so the
// correct variant can be reconstructed on decode. Discriminators resolve
// through an explicit registry; the built-in kinds register themselves at
// package load and additional kinds can be registered with RegisterKind.
//
// Usage:
//
//	road := attr.NewCategorical("road_type", "highway")
//	speed := attr.NewNumeric("speed", 42.5).WithConfidence(0.9)
//
//	c := attr.NewContainer()
//	c.Add(road)
//	c.Add(speed)
//
//	// Restrict future additions to the values observed so far.
//	if err := c.FreezeSchema(); err != nil {
//	    return err
//	}
package attr
