// Package apigateway contains API Gateway (REST) descriptors.
package apigateway

// RestApi is an AWS::ApiGateway::RestApi.
// Ref returns the API ID; RootResourceId is the ID of "/".
type RestApi struct {
	Name        any    `json:"Name"`
	Description string `json:"Description,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (RestApi) ResourceType() string { return "AWS::ApiGateway::RestApi" }

// Resource is an AWS::ApiGateway::Resource, one path segment.
// Ref returns the resource ID.
type Resource struct {
	RestApiId any    `json:"RestApiId"`
	ParentId  any    `json:"ParentId"`
	PathPart  string `json:"PathPart"`
}

// ResourceType returns the CloudFormation type.
func (Resource) ResourceType() string { return "AWS::ApiGateway::Resource" }

// Authorization types.
const (
	AuthorizationNone    = "NONE"
	AuthorizationCognito = "COGNITO_USER_POOLS"
)

// Method is an AWS::ApiGateway::Method.
type Method struct {
	RestApiId         any                     `json:"RestApiId"`
	ResourceId        any                     `json:"ResourceId"`
	HttpMethod        string                  `json:"HttpMethod"`
	AuthorizationType string                  `json:"AuthorizationType"`
	AuthorizerId      any                     `json:"AuthorizerId,omitempty"`
	Integration       *Method_Integration     `json:"Integration,omitempty"`
	MethodResponses   []Method_MethodResponse `json:"MethodResponses,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (Method) ResourceType() string { return "AWS::ApiGateway::Method" }

// Integration types.
const (
	IntegrationMock     = "MOCK"
	IntegrationAWSProxy = "AWS_PROXY"
)

// Method_Integration is the backend a method forwards to.
type Method_Integration struct {
	Type_                 string                       `json:"Type"`
	IntegrationHttpMethod string                       `json:"IntegrationHttpMethod,omitempty"`
	Uri                   any                          `json:"Uri,omitempty"`
	PassthroughBehavior   string                       `json:"PassthroughBehavior,omitempty"`
	RequestTemplates      map[string]string            `json:"RequestTemplates,omitempty"`
	IntegrationResponses  []Method_IntegrationResponse `json:"IntegrationResponses,omitempty"`
}

// Method_IntegrationResponse maps an integration result to a method response.
type Method_IntegrationResponse struct {
	StatusCode         string            `json:"StatusCode"`
	ResponseParameters map[string]string `json:"ResponseParameters,omitempty"`
}

// Method_MethodResponse declares a response the method may return.
type Method_MethodResponse struct {
	StatusCode         string          `json:"StatusCode"`
	ResponseParameters map[string]bool `json:"ResponseParameters,omitempty"`
}

// Authorizer is an AWS::ApiGateway::Authorizer.
// Ref returns the authorizer ID.
type Authorizer struct {
	Name           string `json:"Name"`
	RestApiId      any    `json:"RestApiId"`
	Type_          string `json:"Type"`
	IdentitySource string `json:"IdentitySource,omitempty"`
	ProviderARNs   []any  `json:"ProviderARNs,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (Authorizer) ResourceType() string { return "AWS::ApiGateway::Authorizer" }

// Deployment is an AWS::ApiGateway::Deployment.
type Deployment struct {
	RestApiId   any    `json:"RestApiId"`
	Description string `json:"Description,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (Deployment) ResourceType() string { return "AWS::ApiGateway::Deployment" }

// Stage is an AWS::ApiGateway::Stage.
type Stage struct {
	RestApiId    any    `json:"RestApiId"`
	DeploymentId any    `json:"DeploymentId"`
	StageName    string `json:"StageName"`
}

// ResourceType returns the CloudFormation type.
func (Stage) ResourceType() string { return "AWS::ApiGateway::Stage" }
