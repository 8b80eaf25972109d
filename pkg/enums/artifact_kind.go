package enums

// ArtifactKind names the files produced for every order.
type ArtifactKind string

const (
	ArtifactKindTrackingCode     ArtifactKind = "tracking_code"
	ArtifactKindInternalDocument ArtifactKind = "internal_document"
	ArtifactKindClientDocument   ArtifactKind = "client_document"
)

// String implements fmt.Stringer.
func (k ArtifactKind) String() string {
	return string(k)
}
