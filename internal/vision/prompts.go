package vision

// classifyPrompt instructs the model to validate and classify a complaint
// photo. The category list is closed: anything else is treated as invalid.
const classifyPrompt = `You are a municipal complaint classifier for an Indian city corporation.
Examine the photo and decide whether it shows a real civic maintenance issue.

The ONLY valid categories are:
- "Garbage/Waste accumulation"
- "Manholes/drainage opening damage"
- "Water leakage"
- "Drainage overflow"

Severity must be one of: "Low", "Medium", "High".

A photo may show more than one issue; report each separately. If the photo
shows none of the listed issues, or is too blurry, dark, or unrelated
(selfies, indoor scenes, screenshots), mark it invalid and explain why.

Respond with ONLY a JSON object, no markdown, in exactly this shape:
{"is_valid": true, "issues": [{"category": "...", "severity": "...", "description": "one sentence"}]}
or
{"is_valid": false, "reason": "why the photo was rejected"}`

// verifyPrompt compares before/after photos of a work site.
const verifyPrompt = `You are verifying municipal repair work. The first image shows a reported
"%s" issue before work. The second image was taken by the repair crew after
claiming completion.

Decide whether the reported issue has actually been fixed in the second
image. Be strict: a partially cleared site or an unrelated photo is not
completed work.

Respond with ONLY a JSON object, no markdown:
{"work_completed": true, "message": "one sentence on what the after photo shows"}`

// predictPrompt turns recent ticket summaries into a short analytics report.
const predictPrompt = `You are a civic analytics assistant. Below is JSON data of municipal
complaint tickets from the last 30 days.

Write a brief report for city administrators covering: which departments and
wards see the most complaints, any visible trend, and one concrete staffing
or scheduling recommendation.

Respond with ONLY a single line of simple HTML (use <b>, <br> and <ul><li>
tags, no markdown, no newlines).

Ticket data:
%s`
