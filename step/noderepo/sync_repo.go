package noderepo

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/quartzproof/rigprep/file"
	"github.com/quartzproof/rigprep/runtime"
	"github.com/quartzproof/rigprep/step"
)

// SyncRepo clones the companion node repository at its pinned branch, or
// brings an existing clone up to date. The update stays fast-forward
// only so local modifications surface as an error instead of a silent
// merge.
type SyncRepo struct {
	step.BaseStep
}

// NewSyncRepo creates the repository sync step for the given operating
// user, who ends up owning the clone.
func NewSyncRepo(user string) *SyncRepo {
	s := &SyncRepo{
		BaseStep: step.NewBaseStep("node-repo", "Clone or update the companion node repository"),
	}
	s.RunAsField = user
	return s
}

func (s *SyncRepo) Init(ctx context.Context, rt runtime.Runtime, log *logrus.Entry) error {
	if err := s.BaseStep.Init(ctx, rt, log); err != nil {
		return err
	}
	if s.RunAsField == "" {
		return errors.New("repository sync step requires an operating user")
	}
	node := rt.Settings().Node
	log.Debugf("node repo step: url=%s branch=%s dir=%s", node.RepoURL, node.Branch, node.Dir)
	return nil
}

func (s *SyncRepo) Execute(ctx context.Context, rt runtime.Runtime, log *logrus.Entry) (string, bool, error) {
	node := rt.Settings().Node

	git, err := rt.ResolveTool("git")
	if err != nil {
		return "", false, errors.Wrap(err, "git is required to sync the node repository")
	}

	cloned, err := file.IsDir(filepath.Join(node.Dir, ".git"))
	if err != nil {
		return "", false, errors.Wrapf(err, "failed to inspect %s", node.Dir)
	}

	if !cloned {
		log.Infof("cloning %s branch %s into %s", node.RepoURL, node.Branch, node.Dir)
		script := fmt.Sprintf("%s clone --branch %s %s %s", git, node.Branch, node.RepoURL, node.Dir)
		if out, err := s.RunScript(ctx, rt, script); err != nil {
			return out, false, errors.Wrapf(err, "failed to clone %s", node.RepoURL)
		}
		return fmt.Sprintf("cloned %s at branch %s", node.RepoURL, node.Branch), false, nil
	}

	log.Infof("updating the existing clone in %s", node.Dir)
	script := fmt.Sprintf("cd %s && %s fetch origin && %s checkout %s && %s pull --ff-only",
		node.Dir, git, git, node.Branch, git)
	if out, err := s.RunScript(ctx, rt, script); err != nil {
		return out, false, errors.Wrapf(err, "failed to update %s", node.Dir)
	}
	return fmt.Sprintf("updated %s to the latest %s", node.Dir, node.Branch), false, nil
}

var _ step.Step = (*SyncRepo)(nil)
