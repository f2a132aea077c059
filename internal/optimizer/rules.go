package optimizer

import (
	"fmt"
	"strings"
)

// Rule is one optimization check. Check returns nil when the resource already
// follows the rule.
type Rule struct {
	ID       string
	Category string
	Title    string
	Check    func(res Resource) *Suggestion
}

func rulesFor(resourceType string) []Rule {
	var rules []Rule
	switch resourceType {
	case "AWS::S3::Bucket":
		rules = append(rules, s3BucketRules...)
	case "AWS::Lambda::Function":
		rules = append(rules, lambdaFunctionRules...)
	case "AWS::IAM::Policy":
		rules = append(rules, iamPolicyRules...)
	case "AWS::DynamoDB::Table":
		rules = append(rules, dynamoDBTableRules...)
	case "AWS::CloudFront::Distribution":
		rules = append(rules, cloudFrontRules...)
	}
	return append(rules, genericRules...)
}

var s3BucketRules = []Rule{
	{
		ID:       "OPT-S3-001",
		Category: CategorySecurity,
		Title:    "Enable bucket encryption",
		Check: func(res Resource) *Suggestion {
			if has(res.Properties, "BucketEncryption") {
				return nil
			}
			return &Suggestion{
				Severity:    "high",
				Description: "The bucket has no default server-side encryption.",
				Suggestion:  "Add BucketEncryption with an SSE-S3 or SSE-KMS rule.",
			}
		},
	},
	{
		ID:       "OPT-S3-002",
		Category: CategorySecurity,
		Title:    "Block public access",
		Check: func(res Resource) *Suggestion {
			block, _ := res.Properties["PublicAccessBlockConfiguration"].(map[string]any)
			var open []string
			for _, key := range []string{"BlockPublicAcls", "BlockPublicPolicy", "IgnorePublicAcls", "RestrictPublicBuckets"} {
				if on, _ := block[key].(bool); !on {
					open = append(open, key)
				}
			}
			if len(open) == 0 {
				return nil
			}
			severity := "high"
			if website(res) {
				// a website bucket needs a public bucket policy
				severity = "low"
			}
			return &Suggestion{
				Severity:    severity,
				Description: fmt.Sprintf("Public access is not fully blocked: %s not set.", strings.Join(open, ", ")),
				Suggestion:  "Serve the content through the distribution with an origin access identity and block all public access.",
			}
		},
	},
	{
		ID:       "OPT-S3-003",
		Category: CategoryReliability,
		Title:    "Enable versioning",
		Check: func(res Resource) *Suggestion {
			v, _ := res.Properties["VersioningConfiguration"].(map[string]any)
			if v["Status"] == "Enabled" {
				return nil
			}
			return &Suggestion{
				Severity:    "medium",
				Description: "Overwritten and deleted objects cannot be recovered.",
				Suggestion:  "Add VersioningConfiguration with Status Enabled.",
			}
		},
	},
	{
		ID:       "OPT-S3-004",
		Category: CategoryCost,
		Title:    "Add lifecycle rules",
		Check: func(res Resource) *Suggestion {
			if has(res.Properties, "LifecycleConfiguration") {
				return nil
			}
			return &Suggestion{
				Severity:    "low",
				Description: "Objects and old versions are kept forever.",
				Suggestion:  "Add LifecycleConfiguration to expire noncurrent versions and old artifacts.",
			}
		},
	},
}

var lambdaFunctionRules = []Rule{
	{
		ID:       "OPT-LAM-001",
		Category: CategoryPerformance,
		Title:    "Review function memory",
		Check: func(res Resource) *Suggestion {
			memory, ok := number(res.Properties["MemorySize"])
			if ok && memory > 128 {
				return nil
			}
			return &Suggestion{
				Severity:    "medium",
				Description: "Functions at the 128 MB default also get the smallest CPU share.",
				Suggestion:  "Measure with Lambda Power Tuning and raise MemorySize if the function is CPU bound.",
			}
		},
	},
	{
		ID:       "OPT-LAM-002",
		Category: CategoryReliability,
		Title:    "Add a dead letter queue",
		Check: func(res Resource) *Suggestion {
			if has(res.Properties, "DeadLetterConfig") {
				return nil
			}
			return &Suggestion{
				Severity:    "low",
				Description: "Failed asynchronous invocations are dropped.",
				Suggestion:  "Add DeadLetterConfig pointing at an SQS queue or SNS topic.",
			}
		},
	},
	{
		ID:       "OPT-LAM-003",
		Category: CategoryCost,
		Title:    "Shorten the function timeout",
		Check: func(res Resource) *Suggestion {
			timeout, ok := number(res.Properties["Timeout"])
			// API Gateway gives up after 29 seconds.
			if !ok || timeout <= 30 {
				return nil
			}
			return &Suggestion{
				Severity:    "low",
				Description: fmt.Sprintf("Timeout is %.0f seconds; API Gateway stops waiting after 29.", timeout),
				Suggestion:  "Set Timeout to 30 seconds or less for API-backed functions.",
			}
		},
	},
	{
		ID:       "OPT-LAM-004",
		Category: CategoryPerformance,
		Title:    "Enable tracing",
		Check: func(res Resource) *Suggestion {
			tc, _ := res.Properties["TracingConfig"].(map[string]any)
			if tc["Mode"] == "Active" {
				return nil
			}
			return &Suggestion{
				Severity:    "low",
				Description: "Slow requests cannot be traced through the function.",
				Suggestion:  "Add TracingConfig with Mode Active.",
			}
		},
	},
}

var iamPolicyRules = []Rule{
	{
		ID:       "OPT-IAM-001",
		Category: CategorySecurity,
		Title:    "Avoid wildcard actions",
		Check: func(res Resource) *Suggestion {
			var wild []string
			for _, stmt := range statements(res.Properties["PolicyDocument"]) {
				if stmt["Effect"] != "Allow" {
					continue
				}
				for _, action := range strs(stmt["Action"]) {
					if action == "*" || strings.HasSuffix(action, ":*") {
						wild = append(wild, action)
					}
				}
			}
			if len(wild) == 0 {
				return nil
			}
			return &Suggestion{
				Severity:    "high",
				Description: fmt.Sprintf("The policy allows %s.", strings.Join(wild, ", ")),
				Suggestion:  "List only the actions the role needs.",
			}
		},
	},
	{
		ID:       "OPT-IAM-002",
		Category: CategorySecurity,
		Title:    "Avoid wildcard resources",
		Check: func(res Resource) *Suggestion {
			for _, stmt := range statements(res.Properties["PolicyDocument"]) {
				if stmt["Effect"] != "Allow" {
					continue
				}
				for _, r := range list(stmt["Resource"]) {
					if r == "*" {
						return &Suggestion{
							Severity:    "medium",
							Description: "The policy allows actions on every resource.",
							Suggestion:  "Scope Resource to the ARNs the role uses.",
						}
					}
				}
			}
			return nil
		},
	},
}

var dynamoDBTableRules = []Rule{
	{
		ID:       "OPT-DDB-001",
		Category: CategoryReliability,
		Title:    "Enable point-in-time recovery",
		Check: func(res Resource) *Suggestion {
			pitr, _ := res.Properties["PointInTimeRecoverySpecification"].(map[string]any)
			if on, _ := pitr["PointInTimeRecoveryEnabled"].(bool); on {
				return nil
			}
			return &Suggestion{
				Severity:    "medium",
				Description: "The table cannot be restored to an earlier point in time.",
				Suggestion:  "Add PointInTimeRecoverySpecification with PointInTimeRecoveryEnabled true.",
			}
		},
	},
	{
		ID:       "OPT-DDB-002",
		Category: CategoryCost,
		Title:    "Consider on-demand capacity",
		Check: func(res Resource) *Suggestion {
			if res.Properties["BillingMode"] == "PAY_PER_REQUEST" {
				return nil
			}
			tp, _ := res.Properties["ProvisionedThroughput"].(map[string]any)
			read, _ := number(tp["ReadCapacityUnits"])
			write, _ := number(tp["WriteCapacityUnits"])
			if read > 5 || write > 5 {
				return nil
			}
			return &Suggestion{
				Severity:    "low",
				Description: fmt.Sprintf("Provisioned at %.0f read and %.0f write units, which throttles bursts.", read, write),
				Suggestion:  "Use BillingMode PAY_PER_REQUEST for small or spiky workloads.",
			}
		},
	},
}

var cloudFrontRules = []Rule{
	{
		ID:       "OPT-CF-001",
		Category: CategorySecurity,
		Title:    "Redirect viewers to HTTPS",
		Check: func(res Resource) *Suggestion {
			cfg, _ := res.Properties["DistributionConfig"].(map[string]any)
			behavior, _ := cfg["DefaultCacheBehavior"].(map[string]any)
			policy, _ := behavior["ViewerProtocolPolicy"].(string)
			if policy == "redirect-to-https" || policy == "https-only" {
				return nil
			}
			if policy == "" {
				policy = "allow-all"
			}
			return &Suggestion{
				Severity:    "medium",
				Description: fmt.Sprintf("ViewerProtocolPolicy is %s.", policy),
				Suggestion:  "Set ViewerProtocolPolicy to redirect-to-https.",
			}
		},
	},
}

// statefulTypes lose data when deleted.
var statefulTypes = map[string]bool{
	"AWS::DynamoDB::Table":   true,
	"AWS::S3::Bucket":        true,
	"AWS::Cognito::UserPool": true,
}

var genericRules = []Rule{
	{
		ID:       "OPT-GEN-001",
		Category: CategoryReliability,
		Title:    "Retain stateful resources",
		Check: func(res Resource) *Suggestion {
			if !statefulTypes[res.Def.Type] || res.Def.DeletionPolicy != "Delete" {
				return nil
			}
			return &Suggestion{
				Severity:    "medium",
				Description: "Deleting the stack deletes this resource and its data.",
				Suggestion:  "Use DeletionPolicy Retain or Snapshot outside development stacks.",
			}
		},
	},
}

func website(res Resource) bool {
	return has(res.Properties, "WebsiteConfiguration")
}

func has(props map[string]any, key string) bool {
	v, ok := props[key]
	return ok && v != nil
}

func number(v any) (float64, bool) {
	f, ok := v.(float64)
	return f, ok
}

// list returns v as a slice, wrapping a scalar.
func list(v any) []any {
	switch v := v.(type) {
	case nil:
		return nil
	case []any:
		return v
	default:
		return []any{v}
	}
}

func strs(v any) []string {
	var out []string
	for _, item := range list(v) {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func statements(doc any) []map[string]any {
	d, _ := doc.(map[string]any)
	var out []map[string]any
	for _, s := range list(d["Statement"]) {
		if m, ok := s.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
