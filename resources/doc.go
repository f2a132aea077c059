// Package resources holds the typed CloudFormation descriptors the goals stack is
// built from, one package per AWS service.
//
// Descriptor fields mirror CloudFormation property names. Fields that may carry an
// intrinsic function (Ref, GetAtt, Join) are typed any; fields that must be able
// to carry an explicit false are *bool. Zero values are omitted when the
// descriptor is rendered.
package resources
