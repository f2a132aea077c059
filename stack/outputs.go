package stack

import (
	"github.com/lex00/goalstack-go/intrinsics"
)

// Output names.
const (
	OutputWebsiteBucketURL = "WebsiteBucketUrl"
	OutputCloudFrontCdnURL = "CloudFrontCdnUrl"
)

// EmitOutputs declares the stack's two outputs: the website bucket endpoint
// and the CDN URL. The CDN URL is plain http.
func EmitOutputs(c *Catalog, website BucketHandle, cdn DistributionHandle) error {
	if err := c.AddOutput(OutputWebsiteBucketURL, "", website.WebsiteURL()); err != nil {
		return err
	}
	return c.AddOutput(OutputCloudFrontCdnURL, "", intrinsics.Concat("http://", cdn.DomainName()))
}
