// Package s3 contains S3 resource descriptors.
package s3

// Bucket is an AWS::S3::Bucket.
// Ref returns the bucket name. Attributes: Arn, DomainName, RegionalDomainName,
// WebsiteURL.
type Bucket struct {
	BucketName                     any                                    `json:"BucketName,omitempty"`
	PublicAccessBlockConfiguration *Bucket_PublicAccessBlockConfiguration `json:"PublicAccessBlockConfiguration,omitempty"`
	VersioningConfiguration        *Bucket_VersioningConfiguration        `json:"VersioningConfiguration,omitempty"`
	WebsiteConfiguration           *Bucket_WebsiteConfiguration           `json:"WebsiteConfiguration,omitempty"`
	Tags                           []any                                  `json:"Tags,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (Bucket) ResourceType() string { return "AWS::S3::Bucket" }

// Bucket_PublicAccessBlockConfiguration controls public access to the bucket.
type Bucket_PublicAccessBlockConfiguration struct {
	BlockPublicAcls       *bool `json:"BlockPublicAcls,omitempty"`
	BlockPublicPolicy     *bool `json:"BlockPublicPolicy,omitempty"`
	IgnorePublicAcls      *bool `json:"IgnorePublicAcls,omitempty"`
	RestrictPublicBuckets *bool `json:"RestrictPublicBuckets,omitempty"`
}

// BlockAll returns a configuration that blocks every form of public access.
func BlockAll() *Bucket_PublicAccessBlockConfiguration {
	on := true
	return &Bucket_PublicAccessBlockConfiguration{
		BlockPublicAcls:       &on,
		BlockPublicPolicy:     &on,
		IgnorePublicAcls:      &on,
		RestrictPublicBuckets: &on,
	}
}

// VersioningEnabled turns on object versioning.
const VersioningEnabled = "Enabled"

// Bucket_VersioningConfiguration enables object versioning.
type Bucket_VersioningConfiguration struct {
	Status string `json:"Status"`
}

// Bucket_WebsiteConfiguration enables static website hosting.
type Bucket_WebsiteConfiguration struct {
	IndexDocument string `json:"IndexDocument,omitempty"`
	ErrorDocument string `json:"ErrorDocument,omitempty"`
}

// BucketPolicy is an AWS::S3::BucketPolicy.
type BucketPolicy struct {
	Bucket         any `json:"Bucket"`
	PolicyDocument any `json:"PolicyDocument"`
}

// ResourceType returns the CloudFormation type.
func (BucketPolicy) ResourceType() string { return "AWS::S3::BucketPolicy" }
