// Package cloudfront contains CloudFront resource descriptors.
package cloudfront

// Distribution is an AWS::CloudFront::Distribution.
// Attributes: DomainName, Id.
type Distribution struct {
	DistributionConfig Distribution_DistributionConfig `json:"DistributionConfig"`
}

// ResourceType returns the CloudFormation type.
func (Distribution) ResourceType() string { return "AWS::CloudFront::Distribution" }

// Distribution_DistributionConfig is the distribution's configuration.
type Distribution_DistributionConfig struct {
	Comment              string                            `json:"Comment,omitempty"`
	DefaultRootObject    string                            `json:"DefaultRootObject,omitempty"`
	Enabled              *bool                             `json:"Enabled,omitempty"`
	HttpVersion          string                            `json:"HttpVersion,omitempty"`
	IPV6Enabled          *bool                             `json:"IPV6Enabled,omitempty"`
	PriceClass           string                            `json:"PriceClass,omitempty"`
	Origins              []Distribution_Origin             `json:"Origins"`
	DefaultCacheBehavior Distribution_DefaultCacheBehavior `json:"DefaultCacheBehavior"`
	ViewerCertificate    *Distribution_ViewerCertificate   `json:"ViewerCertificate,omitempty"`
}

// Distribution_Origin is where CloudFront fetches content from.
type Distribution_Origin struct {
	Id             string                       `json:"Id"`
	DomainName     any                          `json:"DomainName"`
	S3OriginConfig *Distribution_S3OriginConfig `json:"S3OriginConfig,omitempty"`
}

// Distribution_S3OriginConfig configures an S3 origin. An empty
// OriginAccessIdentity means the bucket is read without an access identity.
type Distribution_S3OriginConfig struct {
	OriginAccessIdentity string `json:"OriginAccessIdentity"`
}

// Distribution_DefaultCacheBehavior is the behaviour applied to every path.
type Distribution_DefaultCacheBehavior struct {
	TargetOriginId       string                        `json:"TargetOriginId"`
	ViewerProtocolPolicy string                        `json:"ViewerProtocolPolicy"`
	AllowedMethods       []string                      `json:"AllowedMethods,omitempty"`
	CachedMethods        []string                      `json:"CachedMethods,omitempty"`
	Compress             *bool                         `json:"Compress,omitempty"`
	ForwardedValues      *Distribution_ForwardedValues `json:"ForwardedValues,omitempty"`
}

// Distribution_ForwardedValues selects what is forwarded to the origin.
type Distribution_ForwardedValues struct {
	QueryString *bool                 `json:"QueryString"`
	Cookies     *Distribution_Cookies `json:"Cookies,omitempty"`
}

// Distribution_Cookies selects forwarded cookies.
type Distribution_Cookies struct {
	Forward string `json:"Forward"`
}

// Distribution_ViewerCertificate selects the certificate served to viewers.
type Distribution_ViewerCertificate struct {
	CloudFrontDefaultCertificate *bool `json:"CloudFrontDefaultCertificate,omitempty"`
}
