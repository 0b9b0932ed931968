package docs

var topics = []Topic{
	{
		Name:    "quickstart",
		Title:   "Quick Start",
		Summary: "Getting started with colossus",
		Content: topicQuickstart,
	},
	{
		Name:    "config",
		Title:   "Configuration Reference",
		Summary: "config.yaml fields and defaults",
		Content: topicConfig,
	},
	{
		Name:    "stages",
		Title:   "Stages",
		Summary: "How planning documents are regenerated and code is developed",
		Content: topicStages,
	},
	{
		Name:    "modes",
		Title:   "Activity Modes",
		Summary: "planning, developing and error, and how to switch between them",
		Content: topicModes,
	},
	{
		Name:    "http",
		Title:   "HTTP API",
		Summary: "Endpoints used by the conversational front-end",
		Content: topicHTTP,
	},
	{
		Name:    "mcp",
		Title:   "MCP Server",
		Summary: "Driving colossus from an MCP client",
		Content: topicMCP,
	},
	{
		Name:    "workspace",
		Title:   "Workspace Directory",
		Summary: "What lives in .colossus/",
		Content: topicWorkspace,
	},
}

const topicQuickstart = `Quick Start
===========

colossus turns a conversation transcript into a working project. It keeps
a chain of planning documents in sync with the transcript, then drives a
code agent through implement, build, test and mark-complete cycles.

1. Install the collaborators:

    pip install aider-chat    # code agent
    make --version            # build system

2. Initialize a git repository:

    cd your-project
    git init
    colossus init

   This creates .colossus/config.yaml and seeds CONTEXT.md.

3. Start the orchestrator:

    colossus serve

   It listens on 127.0.0.1:49999 for the front-end and starts in
   planning mode.

4. Feed it a transcript, either from the front-end or by editing
   TRANSCRIPT.md. Within a minute PROJECT.md, ARCHITECTURE.md, TASKS.md
   and TEST_STRATEGY.md follow.

5. When the plan looks right:

    colossus mode developing

6. Check progress:

    colossus status
    colossus doctor

Commands
--------

  colossus serve              Run the stage loops and the HTTP API
  colossus init               Scaffold .colossus/
  colossus status             Show mode, artifact freshness and feedback
  colossus mode [name]        Print or request the activity mode
  colossus doctor             Check readiness and show escalation details
  colossus mcp                Serve the MCP tools over stdio
  colossus docs [topic]       Read these articles

Global flags
------------

  -d, --project-dir DIR       Project directory (default: current directory)
  --listen ADDR               HTTP address (default 127.0.0.1:49999, "" disables)
  -c, --model NAME            Model passed to the code agent
  --verbose                   Debug logging and agent output on the console
`

const topicConfig = `Configuration Reference
=======================

The config file lives at .colossus/config.yaml. It is optional; every key
has a default.

Top-level fields
----------------

  model       (string)   Model passed to the agent with --model
  retries     (int)      Build or test attempts per cycle (default 5)
  mode-poll   (duration) Mode file poll interval (default 1s)

agent
-----

  command     (string)   Agent binary (default aider)
  args        (list)     Extra arguments. When command is left at the
                         default: [--no-suggest-shell-commands, --yes-always]
  load        (string)   File passed with --load when it exists
                         (default: the context artifact)
  timeout     (int)      Minutes before an invocation is killed (0 = none)

build
-----

  command     (string)   Build binary (default make)
  args        (list)     Arguments placed before the verb
  timeout     (int)      Minutes before a build or test is killed (0 = none)

The verb ("build" or "test") is always the final argument, so the default
runs "make build" and "make test".

artifacts
---------

All paths are relative to the project directory and must be distinct.

  transcript      TRANSCRIPT.md
  requirements    PROJECT.md
  architecture    ARCHITECTURE.md
  tasks           TASKS.md
  test-strategy   TEST_STRATEGY.md
  context         CONTEXT.md

stages
------

Keyed by stage name: requirements, architecture, tasks, test-strategy,
develop.

  interval     (duration) Time between ticks (60s, develop 30s). Integers
                          are read as seconds.
  instruction  (string)   Replaces the built-in instruction. Variables
                          such as $TASKS and $PROJECT_DIR are expanded.
  disabled     (bool)     Do not start this stage's loop

Example
-------

    model: sonnet
    retries: 3
    stages:
      develop:
        interval: 2m
      test-strategy:
        disabled: true
`

const topicStages = `Stages
======

Planning stages
---------------

Each planning stage owns one output document and reads one or two inputs:

  requirements    TRANSCRIPT.md                  -> PROJECT.md
  architecture    PROJECT.md                     -> ARCHITECTURE.md
  tasks           PROJECT.md, ARCHITECTURE.md    -> TASKS.md
  test-strategy   TASKS.md, ARCHITECTURE.md      -> TEST_STRATEGY.md

On every tick in planning mode a stage compares modification times. The
output is stale when it is missing or older than any input. When an input
is missing nothing happens.

A stale output is regenerated by one agent invocation with the inputs and
the output as editable files. If the agent decides no change is needed
the output is touched anyway, so the same inputs never trigger a second
invocation. A failed invocation is logged and retried on the next tick.

Because each output is the next stage's input, a transcript edit ripples
down the chain within a few intervals.

Development stage
-----------------

In developing mode each tick runs one cycle:

  1. implement       the agent implements the next unfinished task
  2. make build      up to 'retries' attempts; after each failure the
                     output is written to .colossus/feedback/from-build.md
                     and the agent is asked to fix it
  3. make test       same loop, feedback in from-test.md
  4. mark complete   the agent marks the finished task in TASKS.md

If build or test still fails after the last attempt the mode switches to
error and development stops until a human steps in.
`

const topicModes = `Activity Modes
==============

  planning     Planning stages run; development is idle (the start mode)
  developing   The development stage runs; planning stages are idle
  error        Development escalated; nothing runs

Only planning and developing can be requested. The error mode is entered
by escalation and left by requesting one of the other two.

Switching
---------

  colossus mode developing          from a shell
  POST /toggle-mode                 from the front-end
  colossus_set_mode                 from an MCP client

All three end up in .colossus/mode. The running server polls the file
every mode-poll interval and mirrors its own mode back into it, so the
file always shows the current mode. Invalid content is ignored.

A cycle already in progress finishes even when the mode changes under it.
`

const topicHTTP = `HTTP API
========

colossus serve listens on --listen (default 127.0.0.1:49999). Bodies are
JSON. Errors look like:

    {"error": "Invalid mode specified", "project_dir": "/path/to/project"}

GET /current-mode
    Returns the mode name, e.g. "planning".

POST /toggle-mode
    {"mode": "developing"}
    Returns "Mode changed to developing". Anything other than planning or
    developing is rejected with 400.

POST /update-transcript
    {"content": "..."}
    Replaces the transcript file. Returns "Transcript updated successfully".

GET /contexts
    Lists CONTEXT_*.md files in the project directory:
    [{"filename": "CONTEXT_api.md", "content": "..."}]
    When there are none: [{"filename": "None", "content": ""}]

POST /change-code
    {"change": "rename the flag", "context": "CONTEXT_api.md"}
    Runs the agent once with the given instruction, loading the context
    file unless it is "None". Returns the agent's output.

POST /ask-question
    {"question": "what does the parser do?", "context": "None"}
    Asks the agent a question with the same context rules. Returns the
    agent's output; if the agent fails the reply is still 200, starting
    with "Failed to get response from aider:".

Agent runs started here finish even if the client disconnects.
`

const topicMCP = `MCP Server
==========

colossus mcp serves the Model Context Protocol over stdio, so an MCP
client can steer a project without the HTTP API.

    {
      "mcpServers": {
        "colossus": {
          "command": "colossus",
          "args": ["mcp", "-d", "/path/to/project"]
        }
      }
    }

Tools
-----

  colossus_get_mode            Current mode from .colossus/mode
  colossus_set_mode            Request planning or developing
  colossus_update_transcript   Replace the transcript, or append with
                               append=true
  colossus_status              Artifact table with freshness

The MCP server never runs the agent itself. Changes take effect through
the files that colossus serve is watching.
`

const topicWorkspace = `Workspace Directory
===================

    .colossus/
    ├── config.yaml          Project configuration
    ├── .gitignore           Keeps runtime files out of git
    ├── mode                 Current activity mode, one line
    ├── mode.lock            Lock guarding the mode file
    ├── serve.lock           Held while colossus serve runs
    ├── colossus.log         Structured JSON log
    ├── logs/                Output of agent, build and test runs (newest 500)
    └── feedback/
        ├── from-build.md    Last build fix request
        └── from-test.md     Last test fix request

A .env file in the project directory supplies variables such as API keys
to the agent and build commands, unless they are already set.

Only one colossus serve may run per project. colossus doctor shows the
newest log and feedback after an escalation.
`
