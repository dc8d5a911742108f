package gpu

// Entry points resolved from the built programs.
const (
	SimulateEntry  = "simulate"
	CompositeEntry = "composite"
)

// HalfFieldOption is the build option selecting binary16 field storage.
const HalfFieldOption = "-D FIELD_HALF"

// SharedStage is prepended to every program. Field buffers are addressed as
// four channels per texel, (pressure, velocity, gradX, gradY).
const SharedStage = `#ifdef FIELD_HALF
#define FIELD_T half
#define LOAD_TEXEL(buf, i) vload_half4((i), (buf))
#define STORE_TEXEL(buf, i, v) vstore_half4((v), (i), (buf))
#else
#define FIELD_T float
#define LOAD_TEXEL(buf, i) vload4((i), (buf))
#define STORE_TEXEL(buf, i, v) vstore4((v), (i), (buf))
#endif
`

// SimulationStage advances the field one step. Frame 0 writes zeros.
const SimulationStage = `__kernel void simulate(
    const int width,
    const int height,
    const int frame,
    const float input_x,
    const float input_y,
    const int input_active,
    const float ripple_size,
    const float ripple_strength,
    const float wave_speed,
    const float spring_strength,
    const float velocity_damping,
    const float pressure_damping,
    __global const FIELD_T* src,
    __global FIELD_T* dst)
{
    int x = get_global_id(0);
    int y = get_global_id(1);
    if (x >= width || y >= height) {
        return;
    }
    int idx = y * width + x;
    if (frame == 0) {
        STORE_TEXEL(dst, idx, (float4)(0.0f));
        return;
    }

    float delta = fmin(wave_speed, 1.0f);
    float4 here = LOAD_TEXEL(src, idx);
    float p = here.x;
    float v = here.y;

    float right = LOAD_TEXEL(src, y * width + min(x + 1, width - 1)).x;
    float left = LOAD_TEXEL(src, y * width + max(x - 1, 0)).x;
    float up = LOAD_TEXEL(src, min(y + 1, height - 1) * width + x).x;
    float down = LOAD_TEXEL(src, max(y - 1, 0) * width + x).x;

    if (x == 0) left = right;
    if (x == width - 1) right = left;
    if (y == 0) down = up;
    if (y == height - 1) up = down;

    v += delta * (-2.0f * p + right + left) / 4.0f;
    v += delta * (-2.0f * p + up + down) / 4.0f;
    p += delta * v;
    v -= spring_strength * delta * p;
    v *= 1.0f - velocity_damping * delta;
    p *= pressure_damping;

    if (input_active != 0 && ripple_size > 0.0f) {
        float dist = distance((float2)(x + 0.5f, y + 0.5f), (float2)(input_x, input_y));
        if (dist <= ripple_size) {
            p += ripple_strength * (1.0f - dist / ripple_size);
        }
    }

    STORE_TEXEL(dst, idx, (float4)(p, v, (right - left) * 0.5f, (up - down) * 0.5f));
}
`

// CompositeStage shades the source image through the field into an RGBA8
// target whose row 0 is the top of the screen.
const CompositeStage = `float3 image_texel(__global const uchar4* image, int w, int h, int x, int y)
{
    x = clamp(x, 0, w - 1);
    y = clamp(y, 0, h - 1);
    return convert_float3(image[y * w + x].xyz) / 255.0f;
}

float3 sample_image(__global const uchar4* image, int w, int h, float2 st)
{
    float u = st.x * w - 0.5f;
    float v = st.y * h - 0.5f;
    float x0 = floor(u);
    float y0 = floor(v);
    float fx = u - x0;
    float fy = v - y0;
    int ix = (int)x0;
    int iy = (int)y0;
    float3 top = mix(image_texel(image, w, h, ix, iy), image_texel(image, w, h, ix + 1, iy), fx);
    float3 bottom = mix(image_texel(image, w, h, ix, iy + 1), image_texel(image, w, h, ix + 1, iy + 1), fx);
    return mix(top, bottom, fy);
}

__kernel void composite(
    const int width,
    const int height,
    const int image_width,
    const int image_height,
    const float distortion_strength,
    const int aberration,
    const float aberration_strength,
    const float aberration_dispersal,
    __global const FIELD_T* field,
    __global const uchar4* image,
    __global uchar4* target)
{
    int col = get_global_id(0);
    int row = get_global_id(1);
    if (col >= width || row >= height) {
        return;
    }
    float4 texel = LOAD_TEXEL(field, (height - 1 - row) * width + col);

    float2 res = (float2)(width, height);
    float2 img = (float2)(image_width, image_height);
    float scale = fmax(res.x / img.x, res.y / img.y);
    float2 offset = (res - img * scale) * 0.5f;
    float2 frag = (float2)(col + 0.5f, height - row - 0.5f);
    float2 tex = ((frag - offset) / scale) / img;
    tex.y = 1.0f - tex.y;

    float2 distortion = distortion_strength * texel.zw;
    float2 base = tex + distortion;
    float3 color;
    if (aberration == 0 || aberration_strength <= 0.0f) {
        color = sample_image(image, image_width, image_height, base);
    } else {
        float2 off_center = tex - 0.5f;
        float amount = length(distortion) * aberration_strength * 0.5f +
                       length(off_center) * aberration_strength * aberration_dispersal;
        float2 dir = normalize(off_center + (float2)(0.001f));
        color.x = sample_image(image, image_width, image_height, base - dir * amount).x;
        color.y = sample_image(image, image_width, image_height, base).y;
        color.z = sample_image(image, image_width, image_height, base + dir * amount).z;
        color = clamp(color, 0.0f, 1.0f);
    }

    float3 n = normalize((float3)(-texel.z, 0.2f, -texel.w));
    float3 l = normalize((float3)(-3.0f, 10.0f, 3.0f));
    float glint = pow(fmax(0.0f, dot(n, l)), 60.0f);
    color += glint * (float3)(1.0f, 0.95f, 0.9f);
    color = clamp(color, 0.0f, 1.0f);

    uchar3 rgb = convert_uchar3_sat_rte(color * 255.0f);
    target[row * width + col] = (uchar4)(rgb, (uchar)255);
}
`
