package vision

// CardPrompt is the fixed instruction sent with every image.
const CardPrompt = `You are a business card reader. Extract the contact details printed on this business card image.

Return ONLY a JSON object with exactly these seven string keys:
{"name": "", "email": "", "phone": "", "company": "", "job_title": "", "address": "", "website": ""}

Rules:
- Use an empty string for any field that is not visible. Never use null.
- "name" is the person's full name, not the company.
- If several phone numbers are printed, prefer the mobile or direct number.
- "address" is a single line with commas between parts.
- Do not add any other keys, comments or explanations.`
