package stack

import (
	"errors"
	"fmt"

	goalstack "github.com/lex00/goalstack-go"
	"github.com/lex00/goalstack-go/resources/codepipeline"
)

// ErrPipelineWiring is returned when stages or artifacts of a pipeline do not
// line up.
var ErrPipelineWiring = errors.New("invalid pipeline wiring")

// Artifact is a named bundle of files passed between pipeline actions.
type Artifact struct {
	name string
}

// NewArtifact returns an artifact called name.
func NewArtifact(name string) Artifact {
	return Artifact{name: name}
}

// Name returns the artifact name.
func (a Artifact) Name() string { return a.name }

// Pipeline composes a CodePipeline from ordered stages of actions.
type Pipeline struct {
	catalog   *Catalog
	logicalID string
	name      string
	role      RoleHandle
	bucket    BucketHandle
	stages    []*Stage
	handle    goalstack.Handle
}

// Stage is an ordered group of actions.
type Stage struct {
	name    string
	actions []pipelineAction
}

type pipelineAction struct {
	action  codepipeline.Pipeline_Action
	inputs  []Artifact
	outputs []Artifact
}

// NewPipeline starts a pipeline called name that runs as role and keeps its
// artifacts in artifactBucket. Nothing is registered until Register.
func NewPipeline(c *Catalog, logicalID, name string, role RoleHandle, artifactBucket BucketHandle) *Pipeline {
	return &Pipeline{
		catalog:   c,
		logicalID: logicalID,
		name:      name,
		role:      role,
		bucket:    artifactBucket,
	}
}

// AddStage appends a stage.
func (p *Pipeline) AddStage(name string) *Stage {
	s := &Stage{name: name}
	p.stages = append(p.stages, s)
	return s
}

// Name returns the stage name.
func (s *Stage) Name() string { return s.name }

// AddS3Source adds an action that fetches key from bucket into output.
func (s *Stage) AddS3Source(name string, bucket BucketHandle, key string, output Artifact) {
	s.actions = append(s.actions, pipelineAction{
		action: codepipeline.Pipeline_Action{
			Name: name,
			ActionTypeId: codepipeline.Pipeline_ActionTypeId{
				Category: codepipeline.CategorySource,
				Owner:    "AWS",
				Provider: codepipeline.ProviderS3,
				Version:  "1",
			},
			Configuration: map[string]any{
				"S3Bucket":    bucket.Name(),
				"S3ObjectKey": key,
			},
			RunOrder: 1,
		},
		outputs: []Artifact{output},
	})
}

// AddCodeBuild adds an action that runs project on input.
func (s *Stage) AddCodeBuild(name string, project ProjectHandle, input Artifact, outputs ...Artifact) {
	s.actions = append(s.actions, pipelineAction{
		action: codepipeline.Pipeline_Action{
			Name: name,
			ActionTypeId: codepipeline.Pipeline_ActionTypeId{
				Category: codepipeline.CategoryBuild,
				Owner:    "AWS",
				Provider: codepipeline.ProviderCodeBuild,
				Version:  "1",
			},
			Configuration: map[string]any{
				"ProjectName": project.Name(),
			},
			RunOrder: 1,
		},
		inputs:  []Artifact{input},
		outputs: outputs,
	})
}

// Register checks the wiring and registers the pipeline. Every stage needs a
// unique name and at least one action, the first stage only sources, and
// every consumed artifact must come from an earlier stage.
func (p *Pipeline) Register(opts ...Option) (goalstack.Handle, error) {
	if !p.handle.IsZero() {
		return goalstack.Handle{}, fmt.Errorf("%w: %s registered twice", ErrDuplicate, p.logicalID)
	}
	stages, err := p.render()
	if err != nil {
		return goalstack.Handle{}, fmt.Errorf("pipeline %s: %w", p.logicalID, err)
	}

	h, err := p.catalog.Add(p.logicalID, codepipeline.Pipeline{
		Name:    p.name,
		RoleArn: p.role.Arn(),
		ArtifactStore: codepipeline.Pipeline_ArtifactStore{
			Type_:    "S3",
			Location: p.bucket.Name(),
		},
		Stages: stages,
	}, opts...)
	if err != nil {
		return goalstack.Handle{}, err
	}
	p.handle = h
	return h, nil
}

func (p *Pipeline) render() ([]codepipeline.Pipeline_Stage, error) {
	if len(p.stages) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 stages, have %d", ErrPipelineWiring, len(p.stages))
	}

	produced := make(map[string]string)
	stageNames := make(map[string]bool)
	out := make([]codepipeline.Pipeline_Stage, 0, len(p.stages))

	for i, s := range p.stages {
		if s.name == "" {
			return nil, fmt.Errorf("%w: stage %d has no name", ErrPipelineWiring, i)
		}
		if stageNames[s.name] {
			return nil, fmt.Errorf("%w: duplicate stage %q", ErrPipelineWiring, s.name)
		}
		stageNames[s.name] = true
		if len(s.actions) == 0 {
			return nil, fmt.Errorf("%w: stage %q has no actions", ErrPipelineWiring, s.name)
		}

		stage := codepipeline.Pipeline_Stage{Name: s.name}
		stageOutputs := make(map[string]bool)
		for _, a := range s.actions {
			isSource := a.action.ActionTypeId.Category == codepipeline.CategorySource
			if (i == 0) != isSource {
				return nil, fmt.Errorf("%w: action %q: source actions belong in the first stage only", ErrPipelineWiring, a.action.Name)
			}

			action := a.action
			for _, in := range a.inputs {
				if _, ok := produced[in.name]; !ok {
					return nil, fmt.Errorf("%w: action %q consumes %q, which no earlier stage produces", ErrPipelineWiring, action.Name, in.name)
				}
				action.InputArtifacts = append(action.InputArtifacts, codepipeline.Pipeline_InputArtifact{Name: in.name})
			}
			for _, o := range a.outputs {
				if o.name == "" {
					return nil, fmt.Errorf("%w: action %q has an unnamed output", ErrPipelineWiring, action.Name)
				}
				if _, ok := produced[o.name]; ok || stageOutputs[o.name] {
					return nil, fmt.Errorf("%w: artifact %q produced twice", ErrPipelineWiring, o.name)
				}
				action.OutputArtifacts = append(action.OutputArtifacts, codepipeline.Pipeline_OutputArtifact{Name: o.name})
				stageOutputs[o.name] = true
			}
			stage.Actions = append(stage.Actions, action)
		}
		// Outputs become visible to later stages only.
		for name := range stageOutputs {
			produced[name] = s.name
		}
		out = append(out, stage)
	}
	return out, nil
}
