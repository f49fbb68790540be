// Copyright 2026 The Cortex Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides the public API for the engine's optimizers.
//
// Example:
//
//	sgd := optim.NewSGD(0.01, 0.9)
//	sgd.Step(groups)
package optim

import (
	"github.com/cortex-ml/cortex/internal/optim"
)

// Type aliases for public API

// Params is one parameter group with its gradients.
type Params = optim.Params

// SGD is stochastic gradient descent with optional momentum.
type SGD = optim.SGD

// NewSGD creates an optimizer. A zero learning rate defaults to 0.01.
func NewSGD(lr, momentum float64) *SGD { return optim.NewSGD(lr, momentum) }
