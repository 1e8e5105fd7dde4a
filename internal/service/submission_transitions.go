package service

import "cir-dashboard/backend/internal/model"

// 提交状态流转：动作 → 允许的源状态
// VERIFIED 不在任何动作的源状态中，即为终态
var submissionTransitions = map[string][]model.SubmissionStatus{
	"verify":   {model.SubmissionSubmitted},
	"resubmit": {model.SubmissionRejected},
	"edit":     {model.SubmissionSubmitted}, // 员工通过通用更新修改内容
}

func validTransition(action string, from model.SubmissionStatus) bool {
	allowed, ok := submissionTransitions[action]
	if !ok {
		return false
	}
	for _, status := range allowed {
		if status == from {
			return true
		}
	}
	return false
}
