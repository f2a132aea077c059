package stack

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	goalstack "github.com/lex00/goalstack-go"
	"github.com/lex00/goalstack-go/intrinsics"
	"github.com/lex00/goalstack-go/resources/apigateway"
	"github.com/lex00/goalstack-go/resources/lambda"
)

// ErrFinalized is returned when an API is changed after Finalize.
var ErrFinalized = errors.New("api already finalized")

// StageName is the single deployment stage of every API.
const StageName = "prod"

// CORS preflight response headers.
const (
	CorsAllowHeaders     = "'Content-Type,X-Amz-Date,Authorization,X-Api-Key,X-Amz-Security-Token,X-Amz-User-Agent'"
	CorsAllowOrigin      = "'*'"
	CorsAllowCredentials = "'false'"
	CorsAllowMethods     = "'OPTIONS,GET,PUT,POST,DELETE'"
)

const responseHeader = "method.response.header."

// API composes an API Gateway REST API: a tree of path nodes, methods
// integrated with Lambda functions, user pool authorizers and a deployment.
type API struct {
	catalog   *Catalog
	handle    goalstack.Handle
	root      *Node
	methods   []string
	methodIDs map[string]int
	finalized bool
	stage     goalstack.Handle
}

// Node is one path segment of the API.
type Node struct {
	api        *API
	logicalID  string
	path       string
	resourceID any
}

// AuthorizerHandle identifies an API authorizer.
type AuthorizerHandle struct{ goalstack.Handle }

// MethodAuth selects how a method authenticates callers. The zero value means
// no authorization.
type MethodAuth struct {
	Authorizer AuthorizerHandle
}

// MethodHandle identifies a registered method.
type MethodHandle struct {
	goalstack.Handle
	Verb string
	Path string
}

// NewAPI registers a REST API named name.
func NewAPI(c *Catalog, logicalID, name string) (*API, error) {
	h, err := c.Add(logicalID, apigateway.RestApi{Name: name})
	if err != nil {
		return nil, err
	}
	a := &API{catalog: c, handle: h, methodIDs: make(map[string]int)}
	a.root = &Node{
		api:        a,
		logicalID:  logicalID,
		path:       "/",
		resourceID: h.Attr("RootResourceId"),
	}
	return a, nil
}

// Handle returns the RestApi handle.
func (a *API) Handle() goalstack.Handle { return a.handle }

// Root returns the node for "/".
func (a *API) Root() *Node { return a.root }

// Path returns the node's full path, such as "/goals/{id}".
func (n *Node) Path() string { return n.path }

// LogicalID returns the node's resource logical ID. For the root node it is
// the API's logical ID.
func (n *Node) LogicalID() string { return n.logicalID }

// AddResource registers a child path segment.
func (n *Node) AddResource(pathPart string) (*Node, error) {
	a := n.api
	if a.finalized {
		return nil, ErrFinalized
	}
	if pathPart == "" || strings.Contains(pathPart, "/") {
		return nil, fmt.Errorf("invalid path part %q", pathPart)
	}

	id := n.logicalID + identifier(pathPart)
	h, err := a.catalog.Add(id, apigateway.Resource{
		RestApiId: a.handle.Ref(),
		ParentId:  n.resourceID,
		PathPart:  pathPart,
	})
	if err != nil {
		return nil, err
	}

	path := strings.TrimSuffix(n.path, "/") + "/" + pathPart
	return &Node{api: a, logicalID: id, path: path, resourceID: h.Ref()}, nil
}

// AddAuthorizer registers a Cognito user pool authorizer that reads the
// token from the Authorization header.
func (a *API) AddAuthorizer(logicalID, name string, pool UserPoolHandle) (AuthorizerHandle, error) {
	if a.finalized {
		return AuthorizerHandle{}, ErrFinalized
	}
	h, err := a.catalog.Add(logicalID, apigateway.Authorizer{
		Name:           name,
		RestApiId:      a.handle.Ref(),
		Type_:          apigateway.AuthorizationCognito,
		IdentitySource: "method.request.header.Authorization",
		ProviderARNs:   []any{pool.Arn()},
	})
	return AuthorizerHandle{h}, err
}

// AddMethod registers verb on node, proxied to fn. A zero fn registers a mock
// method with no backend. Every proxied method also gets a Lambda permission
// letting API Gateway invoke fn for this verb and path.
func (a *API) AddMethod(node *Node, verb string, fn FunctionHandle, auth MethodAuth) (MethodHandle, error) {
	verb = strings.ToUpper(verb)
	method := apigateway.Method{
		HttpMethod:        verb,
		AuthorizationType: apigateway.AuthorizationNone,
	}
	if !auth.Authorizer.IsZero() {
		method.AuthorizationType = apigateway.AuthorizationCognito
		method.AuthorizerId = auth.Authorizer.Ref()
	}

	if fn.IsZero() {
		method.Integration = &apigateway.Method_Integration{Type_: apigateway.IntegrationMock}
		return a.addMethod(node, method)
	}

	method.Integration = &apigateway.Method_Integration{
		Type_:                 apigateway.IntegrationAWSProxy,
		IntegrationHttpMethod: "POST",
		Uri: intrinsics.Sub{String: fmt.Sprintf(
			"arn:${AWS::Partition}:apigateway:${AWS::Region}:lambda:path/2015-03-31/functions/${%s.Arn}/invocations",
			fn.LogicalID,
		)},
	}
	m, err := a.addMethod(node, method)
	if err != nil {
		return MethodHandle{}, err
	}

	_, err = a.catalog.AddPermission(m.LogicalID+"Permission", lambda.Permission{
		Action:       "lambda:InvokeFunction",
		FunctionName: fn.Arn(),
		Principal:    "apigateway.amazonaws.com",
		SourceArn: intrinsics.Sub{String: fmt.Sprintf(
			"arn:${AWS::Partition}:execute-api:${AWS::Region}:${AWS::AccountId}:${%s}/*/%s%s",
			a.handle.LogicalID, verb, node.path,
		)},
	})
	if err != nil {
		return MethodHandle{}, err
	}
	return m, nil
}

// AddCorsOptions registers an OPTIONS preflight method on node. It is answered
// by API Gateway with status 200 and the CORS headers, never by a function.
// Calling it twice registers two identical methods.
func (a *API) AddCorsOptions(node *Node) (MethodHandle, error) {
	return a.addMethod(node, apigateway.Method{
		HttpMethod:        "OPTIONS",
		AuthorizationType: apigateway.AuthorizationNone,
		Integration: &apigateway.Method_Integration{
			Type_:               apigateway.IntegrationMock,
			PassthroughBehavior: "NEVER",
			RequestTemplates: map[string]string{
				"application/json": `{"statusCode": 200}`,
			},
			IntegrationResponses: []apigateway.Method_IntegrationResponse{{
				StatusCode: "200",
				ResponseParameters: map[string]string{
					responseHeader + "Access-Control-Allow-Headers":     CorsAllowHeaders,
					responseHeader + "Access-Control-Allow-Origin":      CorsAllowOrigin,
					responseHeader + "Access-Control-Allow-Credentials": CorsAllowCredentials,
					responseHeader + "Access-Control-Allow-Methods":     CorsAllowMethods,
				},
			}},
		},
		MethodResponses: []apigateway.Method_MethodResponse{{
			StatusCode: "200",
			ResponseParameters: map[string]bool{
				responseHeader + "Access-Control-Allow-Headers":     true,
				responseHeader + "Access-Control-Allow-Methods":     true,
				responseHeader + "Access-Control-Allow-Credentials": true,
				responseHeader + "Access-Control-Allow-Origin":      true,
			},
		}},
	})
}

func (a *API) addMethod(node *Node, method apigateway.Method) (MethodHandle, error) {
	if a.finalized {
		return MethodHandle{}, ErrFinalized
	}
	if node == nil || node.api != a {
		return MethodHandle{}, fmt.Errorf("%s %s: node does not belong to API %s", method.HttpMethod, nodePath(node), a.handle.LogicalID)
	}

	base := node.logicalID + method.HttpMethod
	a.methodIDs[base]++
	id := base
	if n := a.methodIDs[base]; n > 1 {
		id = fmt.Sprintf("%s%d", base, n)
	}

	method.RestApiId = a.handle.Ref()
	method.ResourceId = node.resourceID
	h, err := a.catalog.Add(id, method)
	if err != nil {
		return MethodHandle{}, err
	}
	a.methods = append(a.methods, id)
	return MethodHandle{Handle: h, Verb: method.HttpMethod, Path: node.path}, nil
}

// Finalize registers a deployment that waits for every method and the "prod"
// stage serving it. No methods may be added afterwards.
func (a *API) Finalize() error {
	if a.finalized {
		return ErrFinalized
	}
	if len(a.methods) == 0 {
		return fmt.Errorf("api %s has no methods", a.handle.LogicalID)
	}

	deployment, err := a.catalog.Add(a.handle.LogicalID+"Deployment", apigateway.Deployment{
		RestApiId:   a.handle.Ref(),
		Description: "Deployment of " + a.handle.LogicalID,
	}, DependsOn(a.methods...))
	if err != nil {
		return err
	}

	a.stage, err = a.catalog.Add(a.handle.LogicalID+"DeploymentStage"+StageName, apigateway.Stage{
		RestApiId:    a.handle.Ref(),
		DeploymentId: deployment.Ref(),
		StageName:    StageName,
	})
	if err != nil {
		return err
	}
	a.finalized = true
	return nil
}

// URL resolves to "https://<api>.execute-api.<region>.<suffix>/prod/". It is
// only meaningful after Finalize.
func (a *API) URL() intrinsics.Join {
	return intrinsics.Concat(a.endpoint()...)
}

// BaseURL is URL without the trailing slash.
func (a *API) BaseURL() intrinsics.Join {
	parts := a.endpoint()
	return intrinsics.Concat(parts[:len(parts)-1]...)
}

func (a *API) endpoint() []any {
	return []any{
		"https://", a.handle.Ref(),
		".execute-api.", intrinsics.AWS_REGION,
		".", intrinsics.AWS_URL_SUFFIX,
		"/", a.stage.Ref(),
		"/",
	}
}

// Methods returns the logical IDs of every registered method, in order.
func (a *API) Methods() []string {
	return append([]string(nil), a.methods...)
}

// identifier turns a path part such as "{id}" into a logical ID fragment.
func identifier(pathPart string) string {
	var b strings.Builder
	for _, r := range pathPart {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func nodePath(n *Node) string {
	if n == nil {
		return "<nil>"
	}
	return n.path
}
