package stage

import "github.com/jorge-barreto/colossus/internal/config"

// DefaultInstructions holds the instruction template for each planning stage.
// Templates are expanded with config.Vars before use.
var DefaultInstructions = map[string]string{
	config.StageRequirements: "given the $TRANSCRIPT update $REQUIREMENTS",

	config.StageArchitecture: "given the $REQUIREMENTS, update $ARCHITECTURE with technical architecture details",

	config.StageTasks: `Given the $REQUIREMENTS and $ARCHITECTURE, create or update $TASKS with an ordered list of technical tasks for developers to work on today. Follow these rules:
1. Tasks must be ordered by dependency - things needed first must be at the top
2. Each task should be a small, incremental unit of work
3. Tasks should be clear and actionable with relevant technical details
4. The goal is to have a testable product by end of day
5. Break down large tasks into smaller steps
6. Include any setup/config tasks needed early
7. Focus on delivering working functionality over perfection
8. Mark tasks that are critical path for testing
9. Include estimates of time required for each task
10. Ensure the sequence leads to a testable product by end of day
11. Never mark a task as completed; that happens only after it is built and tested`,

	config.StageTestStrategy: `Given the $ARCHITECTURE and $TASKS, create or update $TEST_STRATEGY with a minimal testing strategy. Focus on:
1. Simple unit tests using the language's built-in test framework
2. Basic integration tests for critical paths
3. Test-driven development workflow using vanilla tools
4. Keep everything as simple and maintainable as possible
5. Avoid complex tooling or CI pipelines - stick to local development testing`,
}
