// Package render draws a headless preview of an image's annotations.
//
// Shapes are painted in z-order with x/image/vector: area shapes get a
// translucent fill in their class colour and a solid outline, point-like
// shapes a dot, ranges a full-height band. Masks are composited as a tinted
// layer. Captions use the fixed 7x13 bitmap face so previews are identical on
// every host.
//
// The selected annotation additionally shows its manipulation handles at the
// positions package hittest tests against.
package render
